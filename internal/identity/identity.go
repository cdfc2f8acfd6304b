// Package identity maps a Discord user to the linked game account.
package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/keshon/bridge-bot/internal/bridge"
)

// LinkRecord is the outcome of a link lookup. AccountID and AccountName are
// set only when Linked is true.
type LinkRecord struct {
	Linked      bool
	AccountID   string
	AccountName string
}

// ErrMalformedLink is wrapped by errors about link responses that do not
// have the expected shape.
var ErrMalformedLink = errors.New("malformed link response")

// LinkLookup is the part of the bridge client the resolver needs.
type LinkLookup interface {
	ResolveLink(ctx context.Context, discordID string) (*bridge.LinkResponse, error)
}

type Resolver struct {
	bridge LinkLookup
}

func NewResolver(b LinkLookup) *Resolver {
	return &Resolver{bridge: b}
}

// Resolve returns the link of callerID. Bridge errors are returned as is.
func (r *Resolver) Resolve(ctx context.Context, callerID string) (LinkRecord, error) {
	resp, err := r.bridge.ResolveLink(ctx, callerID)
	if err != nil {
		return LinkRecord{}, err
	}
	return FromResponse(resp)
}

// FromResponse validates a raw link response.
func FromResponse(resp *bridge.LinkResponse) (LinkRecord, error) {
	if resp == nil || resp.Linked == nil {
		return LinkRecord{}, fmt.Errorf("%w: missing linked flag", ErrMalformedLink)
	}
	if resp.Error != "" {
		return LinkRecord{}, fmt.Errorf("bridge could not resolve link: %s", resp.Error)
	}

	uuid, name := deref(resp.UUID), deref(resp.Name)
	if !*resp.Linked {
		if uuid != "" || name != "" {
			return LinkRecord{}, fmt.Errorf("%w: unlinked response carries an account", ErrMalformedLink)
		}
		return LinkRecord{}, nil
	}
	if uuid == "" || name == "" {
		return LinkRecord{}, fmt.Errorf("%w: linked response without uuid and name", ErrMalformedLink)
	}
	return LinkRecord{Linked: true, AccountID: uuid, AccountName: name}, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
