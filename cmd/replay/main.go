package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"replay/internal/audio"
	"replay/internal/config"
	"replay/internal/library"
	"replay/internal/metadata"
	"replay/internal/player"
	"replay/internal/playlist"
	"replay/internal/ui"
	"replay/internal/watchdog"
	"replay/pkg/models"

	"github.com/chzyer/readline"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// supportedExtensions is the fixed allow-list of audio containers that
// participate in the playlist.
var supportedExtensions = []string{".mp3", ".wav", ".flac"}

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var settingsPath string
	var libraryPath string

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "A local audio player",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(settingsPath, libraryPath)
		},
		SilenceUsage: true,
	}

	cmd.Flags().StringVar(&settingsPath, "settings", "settings.toml", "path to the settings file")
	cmd.Flags().StringVar(&libraryPath, "library", "library.db", "path to the library metadata cache")
	return cmd
}

func run(settingsPath, libraryPath string) error {
	// .env may override the settings location; absence is fine.
	godotenv.Load()
	if env := os.Getenv("REPLAY_SETTINGS"); env != "" {
		settingsPath = env
	}

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	settings, err := config.Open(settingsPath, logger)
	if err != nil {
		logger.WithError(err).Error("Error loading settings")
		return err
	}
	configureLogger(logger, settings.Settings().Logging)

	if err := os.MkdirAll(settings.Settings().Directory, 0755); err != nil {
		logger.WithError(err).Error("Error creating tracks directory")
		return err
	}

	db, err := library.Open(libraryPath, logger)
	if err != nil {
		logger.WithError(err).Error("Error initializing library cache")
		return err
	}
	defer db.Close()

	extractor := metadata.NewExtractor(supportedExtensions, db, logger)
	store := playlist.NewStore(extractor.ExtractFromFile, logger)
	device := audio.New(logger)
	display := ui.NewConsole(store, os.Stdout)
	saver := config.NewVolumeSaver(settings, logger)
	defer saver.Close()

	ctrl := player.NewController(store, device, display, saver, settings.Settings().Volume, logger)
	defer ctrl.Close()

	wd := watchdog.New(settings.Settings().Directory, supportedExtensions, store, ctrl, logger)
	wd.Scan() // initial library scan before the loop starts
	if err := wd.Start(); err != nil {
		logger.WithError(err).Error("Error starting watchdog")
		return err
	}
	defer wd.Stop()

	ctrl.Start()
	display.PlaylistChanged("")

	return repl(ctrl, store, settings, wd, logger)
}

func configureLogger(logger *logrus.Logger, cfg config.LoggingConfig) {
	if level, err := logrus.ParseLevel(cfg.Level); err == nil {
		logger.SetLevel(level)
	}
	if cfg.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
}

// repl reads player commands until EOF or quit.
func repl(ctrl *player.Controller, store *playlist.Store, settings *config.Store, wd *watchdog.Watchdog, logger *logrus.Logger) error {
	completer := readline.NewPrefixCompleter(
		readline.PcItem("add"),
		readline.PcItem("remove"),
		readline.PcItem("play"),
		readline.PcItem("pause"),
		readline.PcItem("next"),
		readline.PcItem("prev"),
		readline.PcItem("restart"),
		readline.PcItem("shuffle"),
		readline.PcItem("repeat",
			readline.PcItem("off"), readline.PcItem("one"), readline.PcItem("all")),
		readline.PcItem("volume",
			readline.PcItem("up"), readline.PcItem("down")),
		readline.PcItem("mute"),
		readline.PcItem("seek"),
		readline.PcItem("reorder"),
		readline.PcItem("dir"),
		readline.PcItem("theme",
			readline.PcItem("light"), readline.PcItem("dark")),
		readline.PcItem("list"),
		readline.PcItem("status"),
		readline.PcItem("help"),
		readline.PcItem("quit"),
	)

	rl, err := readline.NewEx(&readline.Config{
		Prompt:       "replay> ",
		AutoComplete: completer,
	})
	if err != nil {
		return err
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		}
		if err == io.EOF {
			return nil
		}

		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		cmd, args := fields[0], fields[1:]

		switch cmd {
		case "quit", "exit":
			return nil
		case "help":
			printHelp()
		default:
			dispatch(cmd, args, ctrl, store, settings, wd, logger)
		}
	}
}

func dispatch(cmd string, args []string, ctrl *player.Controller, store *playlist.Store, settings *config.Store, wd *watchdog.Watchdog, logger *logrus.Logger) {
	switch cmd {
	case "play":
		ctrl.Play()

	case "pause":
		ctrl.TogglePlayback()

	case "next":
		ctrl.Next(false)

	case "prev":
		ctrl.Previous()

	case "restart":
		ctrl.Restart()

	case "shuffle":
		if store.Shuffle() {
			ctrl.Reconcile()
		}

	case "repeat":
		if len(args) == 0 {
			fmt.Printf("repeat: %s\n", ctrl.CycleRepeat())
			return
		}
		mode, ok := models.ParseRepeatMode(args[0])
		if !ok {
			fmt.Println("usage: repeat [off|one|all]")
			return
		}
		ctrl.SetRepeat(mode)

	case "volume":
		if len(args) == 0 {
			fmt.Printf("volume: %d\n", ctrl.Status().Volume)
			return
		}
		switch args[0] {
		case "up":
			ctrl.IncreaseVolume()
		case "down":
			ctrl.DecreaseVolume()
		default:
			v, err := strconv.Atoi(args[0])
			if err != nil {
				fmt.Println("usage: volume [0-100|up|down]")
				return
			}
			ctrl.SetVolume(v)
		}

	case "mute":
		ctrl.ToggleMute()

	case "seek":
		if len(args) == 0 {
			fmt.Println("usage: seek <x>")
			return
		}
		x, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			fmt.Printf("usage: seek <0-%d>\n", int(models.SeekBarWidth))
			return
		}
		ctrl.Seek(x)

	case "reorder":
		if len(args) != 2 {
			fmt.Println("usage: reorder <from> <to>")
			return
		}
		from, err1 := strconv.Atoi(args[0])
		to, err2 := strconv.Atoi(args[1])
		if err1 != nil || err2 != nil {
			fmt.Println("usage: reorder <from> <to>")
			return
		}
		if store.Reorder(from, to) {
			ctrl.Reconcile()
		}

	case "add":
		if len(args) == 0 {
			fmt.Println("usage: add <file>")
			return
		}
		addTrack(args[0], settings.Settings().Directory, logger)

	case "remove":
		if len(args) == 0 {
			fmt.Println("usage: remove <index|file>")
			return
		}
		removeTrack(args[0], store, logger)

	case "dir":
		if len(args) == 0 {
			fmt.Printf("directory: %s\n", settings.Settings().Directory)
			return
		}
		setDirectory(args[0], settings, wd, logger)

	case "theme":
		if len(args) == 0 {
			fmt.Println("usage: theme <light|dark>")
			return
		}
		setTheme(args[0], settings, logger)

	case "list":
		for index, track := range store.All() {
			fmt.Printf("%d. %s (%s)\n", index+1, track.Title, ui.ReadableDuration(track.Duration))
		}

	case "status":
		printStatus(ctrl.Status())

	default:
		fmt.Printf("unknown command: %s (try 'help')\n", cmd)
	}
}

// addTrack copies a file into the tracks directory; the watchdog picks it up
// on its next pass.
func addTrack(src, dir string, logger *logrus.Logger) {
	in, err := os.Open(src)
	if err != nil {
		logger.WithError(err).Warn("Could not open track")
		return
	}
	defer in.Close()

	dst := filepath.Join(dir, filepath.Base(src))
	if dst == src {
		return
	}
	out, err := os.Create(dst)
	if err != nil {
		logger.WithError(err).Warn("Could not copy track")
		return
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		logger.WithError(err).Warn("Could not copy track")
	}
}

// removeTrack deletes a track file from the directory; the watchdog
// reconciles the playlist on its next pass.
func removeTrack(arg string, store *playlist.Store, logger *logrus.Logger) {
	path := arg
	if index, err := strconv.Atoi(arg); err == nil {
		track, ok := store.Track(index)
		if !ok {
			fmt.Printf("no track at index %d\n", index)
			return
		}
		path = track.Path
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		logger.WithError(err).Warn("Could not remove track")
	}
}

// setDirectory re-points the player at a new tracks directory. The watchdog
// clears the playlist and now-playing state and scans the new contents in as
// one step.
func setDirectory(dir string, settings *config.Store, wd *watchdog.Watchdog, logger *logrus.Logger) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		logger.WithError(err).Warn("Could not create directory")
		return
	}

	wd.SetDirectory(dir)

	if err := settings.SetDirectory(dir); err != nil {
		logger.WithError(err).Warn("Could not persist directory, restoring settings backup")
		if err := settings.RestoreBackup(); err != nil {
			logger.WithError(err).Error("Could not restore settings backup")
			return
		}
		if err := settings.SetDirectory(dir); err != nil {
			logger.WithError(err).Error("Could not persist directory after backup restore")
		}
	}
}

func setTheme(name string, settings *config.Store, logger *logrus.Logger) {
	theme := config.ThemeLight
	if name == "dark" {
		theme = config.ThemeDark
	} else if name != "light" {
		fmt.Println("usage: theme <light|dark>")
		return
	}
	if err := settings.SetTheme(theme); err != nil {
		logger.WithError(err).Warn("Could not persist theme, restoring settings backup")
		if err := settings.RestoreBackup(); err != nil {
			logger.WithError(err).Error("Could not restore settings backup")
			return
		}
		if err := settings.SetTheme(theme); err != nil {
			logger.WithError(err).Error("Could not persist theme after backup restore")
		}
	}
}

func printStatus(state player.State) {
	if state.Track == nil {
		fmt.Printf("[%s] nothing loaded, volume %d\n", state.Playback, state.Volume)
		return
	}
	fmt.Printf("[%s] %d. %s - %s (%s / %s) repeat=%s volume=%d muted=%v\n",
		state.Playback, state.Index+1, state.Track.Title, state.Track.Artist,
		ui.ReadableDuration(float64(state.Elapsed)), ui.ReadableDuration(state.Duration),
		state.Repeat, state.Volume, state.Muted)
}

func printHelp() {
	fmt.Print(`commands:
  play                 play the current (or first) track
  pause                toggle play/pause
  next                 next track
  prev                 previous track
  restart              restart the current track
  shuffle              shuffle the playlist
  repeat [off|one|all] cycle or set the repeat mode
  volume [0-100|up|down]
  mute                 toggle mute
  seek <x>             seek via bar coordinate (0-396)
  reorder <from> <to>  swap two playlist entries
  add <file>           copy a file into the tracks directory
  remove <index|file>  delete a track file
  dir [path]           show or change the tracks directory
  theme <light|dark>   set the startup theme
  list                 show the playlist
  status               show the player state
  quit                 exit
`)
}
