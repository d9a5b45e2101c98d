package storage

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/mattwrdg/snoozydozy/internal"
)

// appState is the on-disk shape of the profile/settings file.
type appState struct {
	Profile  internal.BabyProfile `json:"profile"`
	Settings internal.AppSettings `json:"settings"`
}

type FileStorage struct {
	intervals map[string]*internal.SleepInterval // id -> interval
	profile   internal.BabyProfile
	settings  internal.AppSettings
	mu        sync.RWMutex

	intervalsFile  string
	stateFile      string
	lockFile       *flock.Flock
	saveDataChan   chan struct{}
	saveStateChan  chan struct{}
	shutdownChan   chan struct{}
	saveDataDelay  time.Duration
	saveStateDelay time.Duration
	logger         internal.Logger
}

func NewFileStorage(intervalsFile, stateFile string, logger internal.Logger) (*FileStorage, error) {
	s := &FileStorage{
		intervals:      make(map[string]*internal.SleepInterval),
		profile:        internal.DefaultProfile(),
		settings:       internal.DefaultSettings(),
		intervalsFile:  intervalsFile,
		stateFile:      stateFile,
		saveDataChan:   make(chan struct{}, 1),
		saveStateChan:  make(chan struct{}, 1),
		shutdownChan:   make(chan struct{}),
		saveDataDelay:  500 * time.Millisecond,
		saveStateDelay: 500 * time.Millisecond,
		logger:         logger,
	}

	if err := s.acquireLock(); err != nil {
		return nil, err
	}

	// Unreadable data is treated as "no data"; the app must come up even
	// when the files are corrupt.
	s.loadIntervals()
	s.loadState()

	go s.saveWorker(s.saveDataChan, s.saveDataDelay, s.saveIntervals, "sleep intervals")
	go s.saveWorker(s.saveStateChan, s.saveStateDelay, s.saveState, "app state")

	return s, nil
}

// acquireLock takes an exclusive lock next to the data file so two server
// processes cannot trample each other's debounced writes.
func (s *FileStorage) acquireLock() error {
	lockPath := s.intervalsFile + ".lock"
	if dir := filepath.Dir(s.intervalsFile); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	s.lockFile = flock.New(lockPath)
	locked, err := s.lockFile.TryLock()
	if err != nil {
		return err
	}
	if !locked {
		return errors.New("storage: data files are locked by another instance")
	}
	return nil
}

func (s *FileStorage) loadIntervals() {
	file, err := os.Open(s.intervalsFile)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warnf("storage: failed to open %s: %v", s.intervalsFile, err)
		}
		return
	}
	defer file.Close()

	var ivs []*internal.SleepInterval
	if err := json.NewDecoder(file).Decode(&ivs); err != nil {
		if !errors.Is(err, io.EOF) {
			s.logger.Warnf("storage: failed to decode %s, starting empty: %v", s.intervalsFile, err)
		}
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, iv := range ivs {
		s.intervals[iv.ID] = iv
	}
}

func (s *FileStorage) loadState() {
	file, err := os.Open(s.stateFile)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warnf("storage: failed to open %s: %v", s.stateFile, err)
		}
		return
	}
	defer file.Close()

	var st appState
	if err := json.NewDecoder(file).Decode(&st); err != nil {
		if !errors.Is(err, io.EOF) {
			s.logger.Warnf("storage: failed to decode %s, using defaults: %v", s.stateFile, err)
		}
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.profile = st.Profile
	s.settings = st.Settings
	if s.settings.ReminderMinutesBefore == 0 {
		s.settings.ReminderMinutesBefore = internal.DefaultSettings().ReminderMinutesBefore
	}
}

func atomicWriteFileJSON(filePath string, data interface{}) error {
	tempFile := filePath + ".tmp"
	f, err := os.Create(tempFile)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		f.Close()
		os.Remove(tempFile)
		return err
	}

	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tempFile)
		return err
	}

	if err := f.Close(); err != nil {
		os.Remove(tempFile)
		return err
	}

	return os.Rename(tempFile, filePath)
}

func (s *FileStorage) saveIntervals() error {
	s.mu.RLock()
	ivs := make([]*internal.SleepInterval, 0, len(s.intervals))
	for _, iv := range s.intervals {
		ivs = append(ivs, iv)
	}
	s.mu.RUnlock()

	return atomicWriteFileJSON(s.intervalsFile, ivs)
}

func (s *FileStorage) saveState() error {
	s.mu.RLock()
	st := appState{Profile: s.profile, Settings: s.settings}
	s.mu.RUnlock()

	return atomicWriteFileJSON(s.stateFile, st)
}

// saveWorker batches save signals to avoid a disk write per mutation.
func (s *FileStorage) saveWorker(signal chan struct{}, delay time.Duration, save func() error, what string) {
	timer := time.NewTimer(delay)
	defer timer.Stop()

	for {
		select {
		case <-signal:
			timer.Reset(delay)
		case <-timer.C:
			if err := save(); err != nil {
				s.logger.Errorf("storage: error saving %s: %v", what, err)
			}
		case <-s.shutdownChan:
			return
		}
	}
}

func (s *FileStorage) Close() error {
	close(s.shutdownChan)

	// Save pending data synchronously on shutdown
	if err := s.saveIntervals(); err != nil {
		return err
	}
	if err := s.saveState(); err != nil {
		return err
	}
	if s.lockFile != nil {
		_ = s.lockFile.Unlock()
	}
	return nil
}

// --- IntervalRepository ---

func (s *FileStorage) ListIntervals(ctx context.Context) ([]internal.SleepInterval, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ivs := make([]internal.SleepInterval, 0, len(s.intervals))
	for _, iv := range s.intervals {
		ivs = append(ivs, *iv)
	}
	return ivs, nil
}

func (s *FileStorage) SaveInterval(ctx context.Context, iv *internal.SleepInterval) error {
	s.mu.Lock()
	cp := *iv
	s.intervals[iv.ID] = &cp
	s.mu.Unlock()
	s.signalDataSave()
	return nil
}

func (s *FileStorage) DeleteInterval(ctx context.Context, id string) error {
	s.mu.Lock()
	delete(s.intervals, id)
	s.mu.Unlock()
	s.signalDataSave()
	return nil
}

func (s *FileStorage) ReplaceIntervals(ctx context.Context, ivs []internal.SleepInterval) error {
	s.mu.Lock()
	s.intervals = make(map[string]*internal.SleepInterval, len(ivs))
	for i := range ivs {
		cp := ivs[i]
		s.intervals[cp.ID] = &cp
	}
	s.mu.Unlock()
	s.signalDataSave()
	return nil
}

// --- ProfileRepository ---

func (s *FileStorage) GetProfile(ctx context.Context) (internal.BabyProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profile, nil
}

func (s *FileStorage) SetProfile(ctx context.Context, p internal.BabyProfile) error {
	s.mu.Lock()
	s.profile = p
	s.mu.Unlock()
	s.signalStateSave()
	return nil
}

// --- SettingsRepository ---

func (s *FileStorage) GetSettings(ctx context.Context) (internal.AppSettings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings, nil
}

func (s *FileStorage) SetSettings(ctx context.Context, set internal.AppSettings) error {
	s.mu.Lock()
	s.settings = set
	s.mu.Unlock()
	s.signalStateSave()
	return nil
}

func (s *FileStorage) signalDataSave() {
	select {
	case s.saveDataChan <- struct{}{}:
	default:
	}
}

func (s *FileStorage) signalStateSave() {
	select {
	case s.saveStateChan <- struct{}{}:
	default:
	}
}

// --- Compile-time assertions ---
var _ Store = (*FileStorage)(nil)
