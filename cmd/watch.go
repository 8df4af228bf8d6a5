package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/bnema/riverbridge/internal/logger"
	"github.com/bnema/riverbridge/internal/river"
	"github.com/bnema/riverbridge/internal/ui"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// eventBuffer bounds how far the printer may lag behind dispatch
const eventBuffer = 256

var watchJSON bool

var watchCmd = &cobra.Command{
	Use:   "watch [output...]",
	Short: "Stream status events until interrupted",
	Long: `Listen to the given outputs (all of them when none are given) and to the
seat, and print every status event as it arrives.`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().BoolVar(&watchJSON, "json", false, "Print one JSON object per event")
	rootCmd.AddCommand(watchCmd)
}

// eventLine is the JSON shape of one watched event
type eventLine struct {
	Kind  string      `json:"kind"`
	Event river.Event `json:"event"`
}

func runWatch(cmd *cobra.Command, args []string) error {
	wl, session, err := connectRiver()
	if err != nil {
		return err
	}
	defer session.Close()

	ids := args
	if len(ids) == 0 {
		ids = wl.OutputNames()
	}
	tracker, err := river.Track(session, wl, ids)
	if err != nil {
		return err
	}
	defer tracker.Close()
	logger.Debugf("Watching %d output(s)", len(tracker.Outputs()))

	events := make(chan river.Event, eventBuffer)
	tracker.Subscribe(func(e river.Event) {
		select {
		case events <- e:
		default:
			logger.Warn("Dropping event, printer is behind", "kind", e.Kind())
		}
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		// Events are only produced by this goroutine, so closing here is safe
		defer close(events)
		return session.Run(ctx)
	})
	g.Go(func() error {
		return printEvents(cmd.OutOrStdout(), events, watchJSON)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func printEvents(w io.Writer, events <-chan river.Event, asJSON bool) error {
	enc := json.NewEncoder(w)
	for e := range events {
		if asJSON {
			if err := enc.Encode(eventLine{Kind: e.Kind(), Event: e}); err != nil {
				return err
			}
			continue
		}
		if _, err := fmt.Fprintln(w, ui.FormatEvent(e)); err != nil {
			return err
		}
	}
	return nil
}
