package metadata

import (
	"crypto/md5"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"replay/internal/library"
	"replay/pkg/models"

	"github.com/dhowden/tag"
	"github.com/go-audio/wav"
	"github.com/google/uuid"
	"github.com/mewkiz/flac"
	"github.com/sirupsen/logrus"
	"github.com/tcolgate/mp3"
)

// Extractor builds Track records from audio files. Metadata tags are
// best-effort (a file without tags falls back to its filename); a file whose
// duration cannot be determined is rejected, since playback progress and the
// seek map both need it.
type Extractor struct {
	supportedFormats []string
	cache            *library.Database // optional, may be nil
	logger           *logrus.Logger

	artworkCache map[string][]byte
	artworkMux   sync.RWMutex
}

// NewExtractor creates a new metadata extractor. cache may be nil to disable
// the metadata cache.
func NewExtractor(supportedFormats []string, cache *library.Database, logger *logrus.Logger) *Extractor {
	return &Extractor{
		supportedFormats: supportedFormats,
		cache:            cache,
		logger:           logger,
		artworkCache:     make(map[string][]byte),
	}
}

// ExtractFromFile builds a Track for an audio file, reusing cached metadata
// when the file is unchanged since it was last probed.
func (e *Extractor) ExtractFromFile(filePath string) (*models.Track, error) {
	startTime := time.Now()

	file, err := os.Open(filePath)
	if err != nil {
		e.logger.WithFields(logrus.Fields{
			"filePath": filePath,
			"error":    err.Error(),
		}).Warn("Failed to open audio file")
		return nil, err
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return nil, err
	}

	if e.cache != nil {
		if track, ok := e.cache.Lookup(filePath, stat.Size(), stat.ModTime()); ok {
			e.logger.WithField("filePath", filePath).Debug("Metadata served from library cache")
			return track, nil
		}
	}

	duration, err := e.calculateDuration(filePath)
	if err != nil {
		e.logger.WithFields(logrus.Fields{
			"filePath": filePath,
			"error":    err.Error(),
		}).Warn("Failed to calculate duration, skipping file")
		return nil, err
	}

	track := &models.Track{
		ID:       uuid.New(),
		Duration: duration,
		Path:     filePath,
		FileSize: stat.Size(),
		Seek:     models.NewSeekMap(duration),
	}

	meta, err := tag.ReadFrom(file)
	if err != nil {
		// No usable tags; fall back to the filename.
		track.Title = strings.TrimSuffix(filepath.Base(filePath), filepath.Ext(filePath))
		e.logger.WithFields(logrus.Fields{
			"filePath": filePath,
			"error":    err.Error(),
		}).Debug("Failed to extract metadata, using filename")
	} else {
		track.Title = meta.Title()
		if track.Title == "" {
			track.Title = strings.TrimSuffix(filepath.Base(filePath), filepath.Ext(filePath))
		}
		track.Artist = meta.Artist()
		track.Album = meta.Album()
		track.ArtworkID, track.HasArtwork = e.extractArtwork(meta)
	}

	if e.cache != nil {
		if err := e.cache.Store(track, stat.ModTime()); err != nil {
			e.logger.WithError(err).WithField("filePath", filePath).Warn("Could not cache track metadata")
		}
	}

	e.logger.WithFields(logrus.Fields{
		"filePath":       filePath,
		"title":          track.Title,
		"artist":         track.Artist,
		"album":          track.Album,
		"duration":       track.Duration,
		"hasArtwork":     track.HasArtwork,
		"processingTime": time.Since(startTime),
	}).Debug("Successfully extracted metadata")

	return track, nil
}

// calculateDuration calculates the duration of an audio file in seconds.
func (e *Extractor) calculateDuration(filePath string) (float64, error) {
	ext := strings.ToLower(filepath.Ext(filePath))
	switch ext {
	case ".mp3":
		return e.durationMP3(filePath)
	case ".flac":
		return e.durationFLAC(filePath)
	case ".wav":
		return e.durationWAV(filePath)
	default:
		return 0, fmt.Errorf("unsupported format: %s", ext)
	}
}

// MP3 duration using frame decoding; fallback to average bitrate estimation
// only if frames fail entirely.
func (e *Extractor) durationMP3(path string) (float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	dec := mp3.NewDecoder(f)
	var total time.Duration
	var skipped int
	frames := 0
	for {
		var fr mp3.Frame
		if err := dec.Decode(&fr, &skipped); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			if frames == 0 { // could not decode any frame
				return e.estimateFromFileSize(path, 192000) // assume 192 kbps
			}
			break // partial decode; use what we have
		}
		total += fr.Duration()
		frames++
	}
	return total.Seconds(), nil
}

// FLAC duration via STREAMINFO metadata block
func (e *Extractor) durationFLAC(path string) (float64, error) {
	stream, err := flac.ParseFile(path)
	if err != nil {
		return 0, err
	}
	si := stream.Info
	if si.NSamples > 0 && si.SampleRate > 0 {
		return float64(si.NSamples) / float64(si.SampleRate), nil
	}
	return 0, fmt.Errorf("flac stream missing sample info")
}

// WAV duration using go-audio/wav to read the header
func (e *Extractor) durationWAV(path string) (float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return 0, fmt.Errorf("invalid wav file")
	}
	if dec.SampleRate == 0 || dec.BitDepth == 0 || dec.NumChans == 0 {
		return 0, fmt.Errorf("invalid wav header")
	}
	// Approximate using file size; a full sample count would require decoding
	// all samples.
	st, err := f.Stat()
	if err != nil {
		return 0, err
	}
	headerSize := int64(44)
	pcmBytes := st.Size() - headerSize
	if pcmBytes < 0 {
		pcmBytes = 0
	}
	bytesPerSampleFrame := int64(dec.BitDepth/8) * int64(dec.NumChans)
	if bytesPerSampleFrame <= 0 {
		return 0, fmt.Errorf("invalid sample frame size")
	}
	sampleFrames := pcmBytes / bytesPerSampleFrame
	return float64(sampleFrames) / float64(dec.SampleRate), nil
}

// estimateFromFileSize provides last-resort estimation if parsing fails.
func (e *Extractor) estimateFromFileSize(path string, bitrate int) (float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	st, err := f.Stat()
	if err != nil {
		return 0, err
	}
	if bitrate <= 0 {
		return 0, fmt.Errorf("invalid bitrate")
	}
	return float64(st.Size()*8) / float64(bitrate), nil
}

// extractArtwork caches embedded artwork bytes keyed by content hash.
func (e *Extractor) extractArtwork(meta tag.Metadata) (string, bool) {
	if meta == nil {
		return "", false
	}
	picture := meta.Picture()
	if picture == nil {
		return "", false
	}

	hash := md5.Sum(picture.Data)
	artID := fmt.Sprintf("%x", hash)

	e.artworkMux.Lock()
	e.artworkCache[artID] = picture.Data
	e.artworkMux.Unlock()

	return artID, true
}

// GetArtwork retrieves cached artwork bytes by ID.
func (e *Extractor) GetArtwork(artID string) ([]byte, bool) {
	e.artworkMux.RLock()
	data, exists := e.artworkCache[artID]
	e.artworkMux.RUnlock()
	return data, exists
}

// IsAudioFile checks if a file is a supported audio format
func (e *Extractor) IsAudioFile(filePath string) bool {
	ext := strings.ToLower(filepath.Ext(filePath))
	for _, format := range e.supportedFormats {
		if ext == format {
			return true
		}
	}
	return false
}
