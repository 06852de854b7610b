package session

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/tirgul/core/user"
)

// AwaitAttempts is how many times AwaitSession polls before giving up.
const AwaitAttempts = 3

var ErrSessionNotEstablished = errors.New("session not established")

// FetchFunc fetches the identity of a freshly signed in user.
type FetchFunc func(ctx context.Context) (user.User, error)

// AwaitSession polls fetch until it succeeds, waiting step longer between each attempt.
// It gives up with ErrSessionNotEstablished after AwaitAttempts failures.
func AwaitSession(ctx context.Context, step time.Duration, fetch FetchFunc) (user.User, error) {
	var err error
	for attempt := 1; attempt <= AwaitAttempts; attempt++ {
		var usr user.User
		if usr, err = fetch(ctx); err == nil {
			return usr, nil
		}
		if attempt == AwaitAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return user.User{}, errors.Wrap(ErrSessionNotEstablished, ctx.Err().Error())
		case <-time.After(time.Duration(attempt) * step):
		}
	}
	return user.User{}, errors.Wrap(ErrSessionNotEstablished, err.Error())
}
