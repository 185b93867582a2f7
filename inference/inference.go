// Package inference serves diagnosis predictions from persisted artifacts.
package inference

import (
	"context"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/YuminosukeSato/bcpredict/dataset"
	"github.com/YuminosukeSato/bcpredict/pipeline"
	"github.com/YuminosukeSato/bcpredict/pkg/errors"
	"github.com/YuminosukeSato/bcpredict/pkg/log"
	"github.com/YuminosukeSato/bcpredict/preprocessing"
)

// Prediction is the diagnosis for one record.
type Prediction = pipeline.Prediction

// Predict classifies rec with a fitted scaler and classifier. The scaler's
// stored statistics are applied as-is; nothing is refitted. It has no side
// effects, so repeated calls return identical results.
func Predict(rec dataset.FeatureRecord, scaler *preprocessing.StandardScaler, classifier pipeline.Classifier) (Prediction, error) {
	state := pipeline.State{Classifier: classifier, Scaler: scaler}
	return state.Predict(rec)
}

// DefaultReloadDelay is how long Watch waits after the last artifact change
// before reloading.
const DefaultReloadDelay = 250 * time.Millisecond

// Service answers predictions from the current artifact pair. The pair is
// swapped atomically on reload, so concurrent requests always see a
// consistent scaler and classifier.
type Service struct {
	store       *pipeline.ArtifactStore
	logger      log.Logger
	state       atomic.Pointer[pipeline.State]
	reloads     atomic.Int64
	ReloadDelay time.Duration
}

// NewService loads the artifacts in store. Failure is returned marked
// ErrModelLoad and the service must not start.
func NewService(store *pipeline.ArtifactStore, logger log.Logger) (*Service, error) {
	if logger == nil {
		logger = log.GetLoggerWithName("inference")
	}
	s := &Service{store: store, logger: logger, ReloadDelay: DefaultReloadDelay}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// NewServiceFromState serves a pair that is already in memory. Such a
// service has no store and cannot reload.
func NewServiceFromState(state *pipeline.State, logger log.Logger) *Service {
	if logger == nil {
		logger = log.GetLoggerWithName("inference")
	}
	s := &Service{logger: logger, ReloadDelay: DefaultReloadDelay}
	s.state.Store(state)
	return s
}

// State returns the pair currently in use.
func (s *Service) State() *pipeline.State {
	return s.state.Load()
}

// Reloads returns how many times artifacts were loaded successfully.
func (s *Service) Reloads() int64 {
	return s.reloads.Load()
}

// Predict classifies rec with the current pair.
func (s *Service) Predict(ctx context.Context, rec dataset.FeatureRecord) (Prediction, error) {
	if err := ctx.Err(); err != nil {
		return Prediction{}, err
	}
	state := s.state.Load()
	p, err := state.Predict(rec)
	if err != nil {
		return Prediction{}, err
	}
	if s.logger.Enabled(ctx, log.LevelDebug) {
		s.logger.Debug("Prediction",
			log.OperationKey, log.OperationPredict,
			log.PhaseKey, log.PhaseInference,
			log.LabelKey, p.Label.String(),
			log.ConfidenceKey, p.ProbabilityMalignant,
		)
	}
	return p, nil
}

// Reload reads the artifacts again and swaps them in. On failure the
// previous pair stays in place.
func (s *Service) Reload() error {
	if s.store == nil {
		return errors.NewValueError("inference.Reload", "service has no artifact store")
	}
	state, err := s.store.LoadState()
	if err != nil {
		return err
	}
	s.state.Store(state)
	s.reloads.Add(1)
	s.logger.Info("Artifacts loaded",
		log.OperationKey, log.OperationLoad,
		log.ArtifactKey, s.store.Dir,
	)
	return nil
}

// Watch reloads the artifacts whenever the trainer replaces them. It blocks
// until ctx is cancelled.
func (s *Service) Watch(ctx context.Context) error {
	w, err := s.watcher()
	if err != nil {
		return err
	}
	return s.watchLoop(ctx, w)
}

func (s *Service) watcher() (*fsnotify.Watcher, error) {
	if s.store == nil {
		return nil, errors.NewValueError("inference.Watch", "service has no artifact store")
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "create artifact watcher")
	}
	if err := w.Add(s.store.Dir); err != nil {
		_ = w.Close()
		return nil, errors.Wrapf(err, "watch %s", s.store.Dir)
	}
	return w, nil
}

func (s *Service) watchLoop(ctx context.Context, w *fsnotify.Watcher) error {
	defer w.Close()

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !isArtifactChange(ev) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(s.ReloadDelay)
			} else {
				timer.Reset(s.ReloadDelay)
			}
			fire = timer.C

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("Artifact watcher error", err)

		case <-fire:
			fire = nil
			if err := s.Reload(); err != nil {
				s.logger.Warn("Artifact reload failed, keeping previous model", err,
					log.ErrorCodeKey, log.ErrorModelLoad,
					log.ArtifactKey, s.store.Dir,
				)
			}
		}
	}
}

func isArtifactChange(ev fsnotify.Event) bool {
	switch filepath.Base(ev.Name) {
	case pipeline.ClassifierFile, pipeline.ScalerFile:
		return ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write)
	default:
		return false
	}
}
