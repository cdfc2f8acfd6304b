// Package runtime drives a single command invocation from the caller's
// request to the emitted reply:
//
//	Started -> AuthorizationCheck? -> IdentityResolution -> DataFetch -> Rendered -> Emitted
//
// with NotLinked and Error as the other terminal states. Every flow ends with
// exactly one reply handed to the Emitter and one audit record.
package runtime

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/keshon/bridge-bot/internal/audit"
	"github.com/keshon/bridge-bot/internal/bridge"
	"github.com/keshon/bridge-bot/internal/dynamic"
	"github.com/keshon/bridge-bot/internal/identity"
	"github.com/keshon/bridge-bot/internal/metrics"
	"github.com/keshon/bridge-bot/internal/staff"
	"github.com/keshon/bridge-bot/internal/template"

	"github.com/rs/zerolog"
)

// State is a step of an invocation.
type State string

const (
	StateStarted       State = "started"
	StateAuthorization State = "authorization_check"
	StateIdentity      State = "identity_resolution"
	StateDataFetch     State = "data_fetch"
	StateRendered      State = "rendered"
	StateEmitted       State = "emitted"
	StateNotLinked     State = "not_linked"
	StateError         State = "error"
)

// Built-in command names.
const (
	CommandVoteNext   = "votenext"
	CommandLinkStatus = "linkstatus"
)

// AuthorizationError is returned when a non-staff caller asks for another
// player's data.
type AuthorizationError struct {
	Command  string
	CallerID string
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("%s: caller %s may not look up other players", e.Command, e.CallerID)
}

// ErrNoPlaceholders is returned when a command reaches data fetch without
// any placeholder to evaluate.
var ErrNoPlaceholders = errors.New("command has no placeholders")

// Bridge is the part of the bridge client the runtime fetches data with.
type Bridge interface {
	VoteNext(ctx context.Context, uuid string) (*bridge.VoteReport, error)
	EvalPlaceholders(ctx context.Context, uuid string, placeholders []string) (*bridge.PlaceholderValues, error)
}

// IdentityResolver maps a caller to its linked game account.
type IdentityResolver interface {
	Resolve(ctx context.Context, callerID string) (identity.LinkRecord, error)
}

// Gate decides whether a caller is staff.
type Gate interface {
	IsStaff(caller staff.Caller) bool
}

// Auditor records audit entries without blocking.
type Auditor interface {
	Record(e audit.Entry)
}

// Emitter delivers the reply to the caller.
type Emitter func(ctx context.Context, reply Reply) error

// Invocation is one request to run a command.
type Invocation struct {
	Command string
	Caller  staff.Caller
	// Override is the player a staff member asked about. Empty means the
	// caller's own linked account.
	Override string
}

// Outcome describes how an invocation ended.
type Outcome struct {
	State  State
	Trace  []State
	Reply  Reply
	Target string // account the data was fetched for
	Err    error
}

func (o *Outcome) enter(s State) {
	o.State = s
	o.Trace = append(o.Trace, s)
}

// Visited reports whether the invocation passed through s.
func (o Outcome) Visited(s State) bool {
	for _, v := range o.Trace {
		if v == s {
			return true
		}
	}
	return false
}

type Options struct {
	Bridge   Bridge
	Identity IdentityResolver
	Gate     Gate
	Audit    Auditor
	Engine   template.Engine
	Logger   zerolog.Logger
}

// Runtime runs invocations. It holds no per-invocation state and is safe for
// concurrent use.
type Runtime struct {
	bridge   Bridge
	identity IdentityResolver
	gate     Gate
	audit    Auditor
	engine   template.Engine
	log      zerolog.Logger
}

func New(opts Options) *Runtime {
	engine := opts.Engine
	if engine.DefaultColor == 0 {
		engine.DefaultColor = template.DefaultColor
	}
	return &Runtime{
		bridge:   opts.Bridge,
		identity: opts.Identity,
		gate:     opts.Gate,
		audit:    opts.Audit,
		engine:   engine,
		log:      opts.Logger,
	}
}

// userError carries the text shown to the caller for a failure that is not
// a bridge failure.
type userError struct {
	text string
	err  error
}

func (e *userError) Error() string { return e.err.Error() }
func (e *userError) Unwrap() error { return e.err }

type flow struct {
	notLinked   Reply
	linkFailed  string
	fetchFailed string

	// fetch loads and renders the data of target. A nil fetch ends the flow
	// after identity resolution with linked(record).
	fetch  func(ctx context.Context, target, playerName string) (Reply, error)
	linked func(rec identity.LinkRecord) Reply
}

// RunDynamic runs a command loaded from the configuration document.
func (r *Runtime) RunDynamic(ctx context.Context, cmd *dynamic.Command, inv Invocation, emit Emitter) Outcome {
	if !cmd.Spec.PrivilegedLookup {
		inv.Override = ""
	}
	return r.run(ctx, inv, flow{
		notLinked:   notLinkedShort,
		linkFailed:  "Failed to check your account link. The server may be offline.",
		fetchFailed: "Failed to fetch data from the Minecraft server.",
		fetch: func(ctx context.Context, target, playerName string) (Reply, error) {
			if cmd.Placeholders.Len() == 0 {
				return Reply{}, &userError{text: MsgNoPlaceholders, err: ErrNoPlaceholders}
			}
			res, err := r.bridge.EvalPlaceholders(ctx, target, cmd.Placeholders.Slice())
			if err != nil {
				return Reply{}, err
			}
			return Reply{Kind: KindResult, Message: r.engine.Render(&cmd.Spec.Template, res.Values, playerName)}, nil
		},
	}, emit)
}

// RunVoteNext shows the vote cooldowns of the caller or, for staff, of the
// override player.
func (r *Runtime) RunVoteNext(ctx context.Context, inv Invocation, emit Emitter) Outcome {
	return r.run(ctx, inv, flow{
		notLinked:   notLinkedVotes,
		linkFailed:  "Failed to check your account link. The Minecraft server may be offline.",
		fetchFailed: "Failed to fetch vote data. The Minecraft server may be offline.",
		fetch: func(ctx context.Context, target, playerName string) (Reply, error) {
			report, err := r.bridge.VoteNext(ctx, target)
			if err != nil {
				return Reply{}, err
			}
			return VoteReply(report, playerName), nil
		},
	}, emit)
}

// RunLinkStatus shows whether the caller's account is linked. It takes no
// override and makes no data fetch.
func (r *Runtime) RunLinkStatus(ctx context.Context, inv Invocation, emit Emitter) Outcome {
	inv.Override = ""
	return r.run(ctx, inv, flow{
		notLinked:  notLinkedStatus,
		linkFailed: "Failed to check link status. The Minecraft server may be offline.",
		linked:     LinkStatusReply,
	}, emit)
}

func (r *Runtime) run(ctx context.Context, inv Invocation, f flow, emit Emitter) Outcome {
	// the caller may go away; the reply and the audit still happen
	ctx = context.WithoutCancel(ctx)
	inv.Override = strings.TrimSpace(inv.Override)

	var o Outcome
	o.enter(StateStarted)
	log := r.log.With().Str("command", inv.Command).Str("user", inv.Caller.ID).Logger()

	target, playerName := inv.Override, inv.Override
	if inv.Override != "" {
		o.enter(StateAuthorization)
		if r.gate == nil || !r.gate.IsStaff(inv.Caller) {
			err := &AuthorizationError{Command: inv.Command, CallerID: inv.Caller.ID}
			log.Info().Str("target", inv.Override).Msg("staff override denied")
			return r.finish(ctx, inv, &o, StateError, ErrorReply(MsgPermissionDenied), err, emit)
		}
		r.record(audit.Entry{
			DiscordUserID: inv.Caller.ID,
			CommandName:   inv.Command + "_staff_override",
			Success:       true,
			TargetUUID:    inv.Override,
		})
	} else {
		o.enter(StateIdentity)
		rec, err := r.identity.Resolve(ctx, inv.Caller.ID)
		if err != nil {
			logFailure(log, err, "link resolve failed")
			return r.finish(ctx, inv, &o, StateError, ErrorReply(f.linkFailed), err, emit)
		}
		if !rec.Linked {
			return r.finish(ctx, inv, &o, StateNotLinked, f.notLinked, nil, emit)
		}
		if f.fetch == nil {
			o.Target = rec.AccountID
			o.enter(StateRendered)
			return r.finish(ctx, inv, &o, StateEmitted, f.linked(rec), nil, emit)
		}
		target, playerName = rec.AccountID, rec.AccountName
	}

	o.Target = target
	o.enter(StateDataFetch)
	reply, err := f.fetch(ctx, target, playerName)
	if err != nil {
		var ue *userError
		if errors.As(err, &ue) {
			log.Warn().Err(err).Msg("command cannot run")
			return r.finish(ctx, inv, &o, StateError, ErrorReply(ue.text), err, emit)
		}
		logFailure(log, err, "data fetch failed")
		return r.finish(ctx, inv, &o, StateError, ErrorReply(f.fetchFailed), err, emit)
	}
	o.enter(StateRendered)
	return r.finish(ctx, inv, &o, StateEmitted, reply, nil, emit)
}

// finish emits reply, moves to the terminal state and records the outcome.
func (r *Runtime) finish(ctx context.Context, inv Invocation, o *Outcome, terminal State, reply Reply, cause error, emit Emitter) Outcome {
	o.Reply = reply
	o.Err = cause

	if emit != nil {
		if err := emit(ctx, reply); err != nil {
			r.log.Error().Err(err).Str("command", inv.Command).Str("user", inv.Caller.ID).Msg("reply not delivered")
			if o.Err == nil {
				o.Err = fmt.Errorf("emit reply: %w", err)
			}
			terminal = StateError
		}
	}
	o.enter(terminal)
	metrics.CommandInvoked(inv.Command, string(o.State))

	entry := audit.Entry{
		DiscordUserID: inv.Caller.ID,
		CommandName:   inv.Command,
		Success:       o.State != StateError,
	}
	if o.Err != nil {
		entry.Error = o.Err.Error()
	}
	if inv.Override != "" {
		entry.TargetUUID = inv.Override
	}
	r.record(entry)
	return *o
}

func (r *Runtime) record(e audit.Entry) {
	if r.audit == nil {
		return
	}
	r.audit.Record(e)
}

// logFailure logs a bridge failure with as much detail as the error carries.
func logFailure(log zerolog.Logger, err error, msg string) {
	ev := log.Error().Err(err)
	var httpErr *bridge.HTTPError
	if errors.As(err, &httpErr) {
		ev = ev.Int("status", httpErr.Status).Bytes("body", httpErr.Body)
	}
	ev.Msg(msg)
}
