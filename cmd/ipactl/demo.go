package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/attributelabs/private-attribution/pkg/comms"
	"github.com/attributelabs/private-attribution/pkg/party"
	"github.com/attributelabs/private-attribution/pkg/pipeline"
)

func demoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "run the example pipelines",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if err := runLocalPipeline(ctx); err != nil {
				return err
			}
			return runForwardingPipeline(ctx)
		},
	}
}

// runLocalPipeline chains four purely local steps; the third one spawns
// concurrent sub-work internally.
func runLocalPipeline(ctx context.Context) error {
	helper := comms.NewLoopback()
	defer helper.Close()

	chain := pipeline.Then(
		pipeline.Then(
			pipeline.Then(
				pipeline.New(helper, startStep(1, 2)),
				addStep(),
			),
			pairWith3Step(),
		),
		addStep(),
	)
	out, err := chain.Run(ctx, struct{}{})
	if err != nil {
		return err
	}
	fmt.Printf("pipe output: %d\n", out)
	return nil
}

// runForwardingPipeline runs a pipeline that exchanges a message with a
// mocked second helper party over byte queues.
func runForwardingPipeline(ctx context.Context) error {
	var (
		h1Inbound = comms.NewQueue(32)
		toH2      = comms.NewQueue(32)
		toH3      = comms.NewQueue(32)

		sendID = uuid.New()
		recvID = uuid.New()
	)
	helper := comms.NewChannelHelper("h1",
		map[party.ID]*comms.Queue{"h2": toH2, "h3": toH3},
		h1Inbound,
		comms.WithChannelLogger(log),
	)
	defer helper.Close()

	g, ctx := errgroup.WithContext(ctx)

	var pipeOut string
	g.Go(func() error {
		chain := pipeline.Then(
			pipeline.Then(
				pipeline.Then(
					pipeline.New(helper, startStep(1, 2)),
					addStep(),
				),
				stringifyStep(),
			),
			forwardStep(sendID, recvID),
		)
		out, err := chain.WithLogger(log).Run(ctx, struct{}{})
		if err != nil {
			return err
		}
		pipeOut = out
		return nil
	})

	var mockOut string
	g.Go(func() error {
		payload, err := cbor.Marshal("mocked_h2_data")
		if err != nil {
			return err
		}
		data, err := cbor.Marshal(comms.Envelope{ID: recvID.String(), Payload: payload})
		if err != nil {
			return err
		}
		if err := h1Inbound.Send(ctx, data); err != nil {
			return err
		}
		select {
		case data := <-toH2.C():
			var env comms.Envelope
			if err := cbor.Unmarshal(data, &env); err != nil {
				return err
			}
			var s string
			if err := cbor.Unmarshal(env.Payload, &s); err != nil {
				return err
			}
			mockOut = s
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})

	if err := g.Wait(); err != nil {
		return err
	}
	fmt.Printf("pipe output: %s; h2 mocked output: %s\n", pipeOut, mockOut)
	return nil
}

func startStep(x, y int) pipeline.Step[struct{}, [2]int] {
	return pipeline.NewStep("start", func(context.Context, struct{}, comms.Helper) ([2]int, error) {
		return [2]int{x, y}, nil
	})
}

func addStep() pipeline.Step[[2]int, int] {
	return pipeline.NewStep("add", func(_ context.Context, in [2]int, _ comms.Helper) (int, error) {
		return in[0] + in[1], nil
	})
}

// pairWith3Step spawns a timed sub-task; the concurrency stays internal to
// the step.
func pairWith3Step() pipeline.Step[int, [2]int] {
	return pipeline.NewStep("pair-with-3", func(ctx context.Context, in int, _ comms.Helper) ([2]int, error) {
		three := make(chan int, 1)
		go func() {
			time.Sleep(500 * time.Millisecond)
			three <- 3
		}()
		select {
		case v := <-three:
			return [2]int{in, v}, nil
		case <-ctx.Done():
			return [2]int{}, &pipeline.InternalError{Reason: "pair-with-3 sub-task cancelled"}
		}
	})
}

func stringifyStep() pipeline.Step[int, string] {
	return pipeline.NewStep("stringify", func(_ context.Context, in int, _ comms.Helper) (string, error) {
		return strconv.Itoa(in), nil
	})
}

// forwardStep sends its input to the next party and returns the peer's
// corresponding reply. Send and receive are awaited concurrently and fail
// together.
func forwardStep(sendID, recvID uuid.UUID) pipeline.Step[string, string] {
	return pipeline.NewStepWithID("forward", sendID, func(ctx context.Context, in string, h comms.Helper) (string, error) {
		return comms.Exchange[string, string](ctx, h, "h2", sendID, recvID, in)
	})
}
