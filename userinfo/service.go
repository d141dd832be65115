package userinfo

import (
	"context"

	"github.com/vitrei/parley/core"
	"github.com/vitrei/parley/logging"
)

// ServiceOptions configures a Service.
type ServiceOptions struct {
	// Logger receives extraction outcomes. Defaults to a no-op logger.
	Logger logging.Logger
}

// Service runs profile extraction over conversation histories and keeps the
// profile store current. It lives outside the turn path; callers decide when
// to invoke it, usually through a Worker.
type Service struct {
	extractor Extractor
	store     Store
	logger    *logging.ConversationLogger
}

// NewService combines an extractor with a profile store.
func NewService(extractor Extractor, store Store, optFns ...func(o *ServiceOptions)) *Service {
	opts := ServiceOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Service{
		extractor: extractor,
		store:     store,
		logger:    logging.NewConversationLogger(opts.Logger).WithComponent("userinfo"),
	}
}

// ProcessTurn extracts facts from the session history and merges them into
// the user's stored profile. An empty history skips extraction and returns
// whatever profile exists.
func (s *Service) ProcessTurn(ctx context.Context, userID string, history []core.Exchange) (*UserProfile, error) {
	transcript := Transcript(history)
	if transcript == "" {
		profile, _, err := s.store.Get(ctx, userID)
		return profile, err
	}

	fragment, err := s.extractor.Extract(ctx, transcript)
	if err != nil {
		return nil, err
	}

	profile, err := s.store.Upsert(ctx, userID, fragment)
	if err != nil {
		return nil, err
	}

	s.logger.WithUser(userID).Debug("userinfo.updated", "history_len", len(history))

	return profile, nil
}

// Profile returns the stored profile for userID, if any.
func (s *Service) Profile(ctx context.Context, userID string) (*UserProfile, bool, error) {
	return s.store.Get(ctx, userID)
}
