package service

import (
	"context"
	"hash/fnv"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dhowden/tag"

	"github.com/soundleaf/soundleaf/internal/domain"
	"github.com/soundleaf/soundleaf/internal/ports"
)

// supportedExtensions lists the audio formats the scanner indexes.
var supportedExtensions = map[string]bool{
	".mp3":  true,
	".wav":  true,
	".flac": true,
	".ogg":  true,
}

// LibraryService indexes audio files found under the configured roots and
// answers library queries. Scan progress is published on the event bus.
type LibraryService struct {
	songs  ports.SongRepository
	bus    ports.EventBus
	logger *slog.Logger
	roots  []string
}

// NewLibraryService creates the library service scanning the given roots.
func NewLibraryService(songs ports.SongRepository, bus ports.EventBus, roots []string, logger *slog.Logger) *LibraryService {
	return &LibraryService{
		songs:  songs,
		bus:    bus,
		logger: logger,
		roots:  roots,
	}
}

// Scan walks the configured roots, upserts every supported audio file and
// prunes songs whose files disappeared. Cancelling ctx aborts the walk and
// returns domain.ErrScanCancelled; rows upserted before the cancel stay.
func (s *LibraryService) Scan(ctx context.Context) error {
	s.publish(domain.NewScanStartedEvent(s.roots))

	known, err := s.songs.All(ctx)
	if err != nil {
		return domain.NewServiceError("LibraryService", "scan", "list known songs", err)
	}
	missing := make(map[int64]bool, len(known))
	for _, song := range known {
		missing[song.ID] = true
	}

	progress := domain.ScanProgress{TotalFiles: -1}
	for _, root := range s.roots {
		err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
			if err != nil {
				s.logger.Warn("scan: skipping entry", "path", path, "error", err)
				return nil
			}
			if ctx.Err() != nil {
				return domain.ErrScanCancelled
			}
			if entry.IsDir() || !supportedExtensions[strings.ToLower(filepath.Ext(path))] {
				return nil
			}

			progress.CurrentFile = path
			progress.FilesScanned++

			song, err := s.readSong(path, entry)
			if err != nil {
				s.logger.Warn("scan: unreadable file", "path", path, "error", err)
				return nil
			}
			if err := s.songs.Upsert(ctx, []domain.Song{song}); err != nil {
				s.logger.Error("scan: upsert failed", "path", path, "error", err)
				return nil
			}
			delete(missing, song.ID)
			progress.SongsFound++
			s.publish(domain.NewScanProgressEvent(progress))
			return nil
		})
		if err == domain.ErrScanCancelled {
			s.publish(domain.NewScanCancelledEvent(context.Cause(ctx).Error()))
			return domain.ErrScanCancelled
		}
		if err != nil {
			return domain.NewServiceError("LibraryService", "scan", "walk "+root, err)
		}
	}

	removed := 0
	if len(missing) > 0 {
		ids := make([]int64, 0, len(missing))
		for id := range missing {
			ids = append(ids, id)
		}
		if err := s.songs.DeleteByIDs(ctx, ids); err != nil {
			s.logger.Error("scan: prune failed", "count", len(ids), "error", err)
		} else {
			removed = len(ids)
		}
	}

	s.publish(domain.NewScanCompletedEvent(progress.SongsFound, removed))
	s.publish(domain.NewLibraryChangedEvent())
	s.logger.Info("library scan completed",
		"files_scanned", progress.FilesScanned,
		"songs_found", progress.SongsFound,
		"removed", removed)
	return nil
}

// Songs returns every indexed song ordered by title.
func (s *LibraryService) Songs(ctx context.Context) ([]domain.Song, error) {
	return s.songs.All(ctx)
}

// Song retrieves one song by id.
func (s *LibraryService) Song(ctx context.Context, id int64) (*domain.Song, error) {
	return s.songs.ByID(ctx, id)
}

// Search matches title, artist and album case-insensitively.
func (s *LibraryService) Search(ctx context.Context, query string) ([]domain.Song, error) {
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}
	return s.songs.Search(ctx, query)
}

func (s *LibraryService) readSong(path string, entry fs.DirEntry) (domain.Song, error) {
	info, err := entry.Info()
	if err != nil {
		return domain.Song{}, err
	}

	// DateAdded only sticks on the first insert; the repository keeps the
	// existing stamp on rescans.
	song := domain.Song{
		ID:           SongIDForPath(path),
		Title:        strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		Path:         path,
		Size:         info.Size(),
		DateAdded:    time.Now(),
		DateModified: info.ModTime(),
	}

	file, err := os.Open(path)
	if err != nil {
		return domain.Song{}, err
	}
	defer file.Close()

	metadata, err := tag.ReadFrom(file)
	if err != nil {
		// Files without readable tags are indexed by filename only.
		return song, nil
	}

	if title := metadata.Title(); title != "" {
		song.Title = title
	}
	song.Artist = metadata.Artist()
	song.Album = metadata.Album()
	song.AlbumArtist = metadata.AlbumArtist()
	song.Composer = metadata.Composer()
	song.Year = metadata.Year()
	song.TrackNumber, _ = metadata.Track()
	song.AlbumID = SongIDForPath(song.AlbumArtist + "/" + song.Album)
	song.ArtistID = SongIDForPath(song.Artist)
	song.Lyrics = ParseLyrics(metadata.Lyrics())
	return song, nil
}

func (s *LibraryService) publish(event domain.Event) {
	s.bus.Publish(event)
}

// SongIDForPath derives the stable positive song id from the file path.
func SongIDForPath(path string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(path))
	id := int64(h.Sum64() & 0x7fffffffffffffff)
	if id == 0 {
		id = 1
	}
	return id
}

// ParseLyrics parses LRC-style synchronized lyrics ("[mm:ss.xx] line")
// into lines ordered by offset. Unsynchronized text yields nil.
func ParseLyrics(text string) []domain.LyricLine {
	if text == "" {
		return nil
	}

	var lines []domain.LyricLine
	for _, raw := range strings.Split(text, "\n") {
		raw = strings.TrimSpace(raw)
		if !strings.HasPrefix(raw, "[") {
			continue
		}
		end := strings.IndexByte(raw, ']')
		if end < 0 {
			continue
		}
		offset, ok := parseLyricTimestamp(raw[1:end])
		if !ok {
			continue
		}
		lines = append(lines, domain.LyricLine{
			OffsetMS: offset,
			Text:     strings.TrimSpace(raw[end+1:]),
		})
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].OffsetMS < lines[j].OffsetMS })
	return lines
}

// parseLyricTimestamp parses "mm:ss" or "mm:ss.xx" into milliseconds.
func parseLyricTimestamp(stamp string) (int64, bool) {
	colon := strings.IndexByte(stamp, ':')
	if colon < 0 {
		return 0, false
	}
	minutes, err := strconv.Atoi(stamp[:colon])
	if err != nil || minutes < 0 {
		return 0, false
	}
	seconds, err := strconv.ParseFloat(stamp[colon+1:], 64)
	if err != nil || seconds < 0 {
		return 0, false
	}
	return int64(float64(minutes*60)*1000 + seconds*1000), true
}
