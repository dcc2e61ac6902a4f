// internal/session/validate.go
package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/user/tickctl/internal/api"
)

// ErrUnreachable means the service did not answer the unauthenticated
// liveness probe; the credential was never exercised.
var ErrUnreachable = errors.New("service unreachable")

// ErrRejected means the service is up but did not accept the credential.
var ErrRejected = errors.New("credential rejected")

// Prober is the slice of the request pipeline needed for credential
// validation.
type Prober interface {
	Health(ctx context.Context) bool
	Probe(ctx context.Context, key string) error
}

// Validate runs the two-step credential check: first an unauthenticated
// reachability probe, then a minimally scoped authenticated read with
// the candidate key. Short-circuits on the first step so "service is
// down" and "credential is wrong" stay distinguishable. Only a clean
// 2xx on the authenticated read counts as acceptance.
func Validate(ctx context.Context, p Prober, key string) error {
	if !p.Health(ctx) {
		return ErrUnreachable
	}
	if err := p.Probe(ctx, key); err != nil {
		if ae, ok := api.AsError(err); ok && ae.IsNetwork() {
			return ErrUnreachable
		}
		return fmt.Errorf("%w: %v", ErrRejected, err)
	}
	return nil
}
