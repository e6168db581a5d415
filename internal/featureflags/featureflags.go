package featureflags

import (
	"context"
	"os"

	"github.com/pkg/errors"
	"github.com/rollout/rox-go/v5/server"
)

const namespace = "storefront"

// Flags is the container registered with Rollout. Field names are the flag
// names shown in the dashboard.
type Flags struct {
	Offline    server.RoxFlag
	LogLevel   server.RoxString
	PromoCodes server.RoxFlag
}

var (
	rox    *server.Rox
	values = &Flags{
		Offline:    server.NewRoxFlag(false),
		LogLevel:   server.NewRoxString("info", []string{"debug", "info", "warn", "error"}),
		PromoCodes: server.NewRoxFlag(true),
	}
)

// Values returns the registered flags. Before Init (or when Init failed)
// every flag reports its default.
func Values() *Flags {
	return values
}

// Init registers the flag container and waits for the first fetch. An
// empty apiKey falls back to ROLLOUT_KEY.
func Init(ctx context.Context, apiKey string) error {
	if apiKey == "" {
		apiKey = os.Getenv("ROLLOUT_KEY")
	}
	if apiKey == "" {
		return errors.New("ROLLOUT_KEY not set, using flag defaults")
	}

	rox = server.NewRox()
	rox.Register(namespace, values)

	options := server.NewRoxOptions(server.RoxOptionsBuilder{})
	select {
	case <-rox.Setup(apiKey, options):
		return nil
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), "rollout setup")
	}
}

// PromoCodesEnabled reports whether promo codes may be applied to carts.
func PromoCodesEnabled() bool {
	return values.PromoCodes.IsEnabled(nil)
}

func Shutdown() {
	if rox == nil {
		return
	}
	<-rox.Shutdown()
}
