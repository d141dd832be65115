package userinfo

import (
	"context"

	"github.com/vitrei/parley/core"
)

// ProfilePayloadKey is the session payload key the injector writes. Prompt
// templates reach the summary as {{.user_profile}}.
const ProfilePayloadKey = "user_profile"

// InjectorOptions configures a ProfileInjector.
type InjectorOptions struct {
	// Key overrides the payload key. Defaults to ProfilePayloadKey.
	Key string
}

// ProfileInjector is a pipeline pre-processor that writes the stored profile
// summary into the session payload before each turn, where prompt templates
// and decision agents can read it. The key is always written, as the empty
// string when nothing is known yet, so templates render cleanly either way.
type ProfileInjector struct {
	store Store
	key   string
}

// NewProfileInjector creates the pre-processor over a profile store.
func NewProfileInjector(store Store, optFns ...func(o *InjectorOptions)) *ProfileInjector {
	opts := InjectorOptions{
		Key: ProfilePayloadKey,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &ProfileInjector{store: store, key: opts.Key}
}

// Name identifies the processor in pipeline logs.
func (i *ProfileInjector) Name() string { return "profile_injector" }

// Process resolves the user's profile and stores its summary in the payload.
func (i *ProfileInjector) Process(ctx context.Context, state *core.AgentState) error {
	summary := ""

	profile, ok, err := i.store.Get(ctx, state.UserID)
	if err != nil {
		return err
	}
	if ok {
		summary = profile.Summary()
	}

	state.SetPayload(i.key, summary)

	return nil
}
