// Package provision identifies the device to the collector at startup and
// applies the settings the collector hands back.
package provision

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/google/uuid"
	"github.com/itohio/noisey/pkg/config"
	"github.com/itohio/noisey/pkg/transport"
	"github.com/rs/zerolog"
)

// ShortIDLength is the number of characters kept from the collector's
// short id.
const ShortIDLength = 4

// Poster posts a JSON document and decodes the answer. transport.Client
// satisfies it.
type Poster interface {
	PostJSON(ctx context.Context, endpoint string, in, out any) (int, error)
}

// Request is the registration document.
type Request struct {
	ID string `json:"id"`
}

// Overrides are the settings pushed by the collector. Absent fields are
// left untouched in the store.
type Overrides struct {
	Offset      *int64 `json:"offset,omitempty"`
	Sensitivity *int64 `json:"sensitivity,omitempty"`
}

// Response is the collector's answer to a registration.
type Response struct {
	ShortID string     `json:"shortID"`
	Config  *Overrides `json:"config,omitempty"`
}

// Result describes the outcome of Register.
type Result struct {
	ShortID    string
	Registered bool // collector answered 200
	Changed    bool // store was committed
}

// DeviceID returns the hardware address of the first non-loopback interface
// that has one. Hosts without such an interface get a random UUID.
func DeviceID() string {
	ifaces, err := net.Interfaces()
	if err == nil {
		if id := hardwareAddr(ifaces); id != "" {
			return id
		}
	}
	return uuid.New().String()
}

func hardwareAddr(ifaces []net.Interface) string {
	for _, iface := range ifaces {
		if iface.Flags&net.FlagLoopback != 0 || len(iface.HardwareAddr) == 0 {
			continue
		}
		return strings.ToUpper(iface.HardwareAddr.String())
	}
	return ""
}

// FallbackShortID derives a short id from the device id, used when the
// collector does not answer with one.
func FallbackShortID(deviceID string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(deviceID) {
		if (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f') {
			b.WriteRune(r)
		}
	}
	return truncate(b.String(), ShortIDLength)
}

// UserAgent formats the HTTP User-Agent for a device.
func UserAgent(prefix, shortID string) string {
	if shortID == "" {
		return prefix
	}
	return prefix + " " + shortID
}

// Register posts the device id to endpoint. On a 200 answer the short id is
// taken from the response and any overrides are written to the store, which
// is committed only if a value changed. Any other status is logged and the
// stored settings stay in effect. A transport failure is returned as an
// error.
func Register(ctx context.Context, poster Poster, endpoint, deviceID string, store *config.Store, log zerolog.Logger) (Result, error) {
	res := Result{ShortID: FallbackShortID(deviceID)}

	var resp Response
	code, err := poster.PostJSON(ctx, endpoint, Request{ID: deviceID}, &resp)
	if err != nil {
		if errors.Is(err, transport.ErrStatus) {
			log.Warn().Int("code", code).Str("id", deviceID).Msg("registration refused, using stored settings")
			return res, nil
		}
		return res, fmt.Errorf("registration failed: %w", err)
	}
	if code != 200 {
		log.Warn().Int("code", code).Str("id", deviceID).Msg("registration not accepted, using stored settings")
		return res, nil
	}

	res.Registered = true
	if resp.ShortID != "" {
		res.ShortID = truncate(resp.ShortID, ShortIDLength)
	}
	log.Info().Str("short_id", res.ShortID).Msg("registered")

	if resp.Config != nil {
		apply(store, resp.Config, log)
	}

	if store.Dirty() {
		if err := store.Commit(); err != nil {
			return res, fmt.Errorf("failed to store settings: %w", err)
		}
		res.Changed = true
	}

	return res, nil
}

func apply(store *config.Store, o *Overrides, log zerolog.Logger) {
	if o.Offset != nil {
		if err := config.OffsetLimits.Check(*o.Offset); err != nil {
			log.Warn().Err(err).Msg("ignoring offset override")
		} else if store.WriteOffset(int8(*o.Offset)) {
			log.Info().Int64("offset", *o.Offset).Msg("offset updated")
		}
	}
	if o.Sensitivity != nil {
		if err := config.SensitivityLimits.Check(*o.Sensitivity); err != nil {
			log.Warn().Err(err).Msg("ignoring sensitivity override")
		} else if store.WriteSensitivity(int8(*o.Sensitivity)) {
			log.Info().Int64("sensitivity", *o.Sensitivity).Msg("sensitivity updated")
		}
	}
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
