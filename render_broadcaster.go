package axisplot

import (
	"context"
	"runtime/trace"
	"sync"

	"github.com/sirupsen/logrus"
)

// Frame is the render of one revision, as sent to live clients. Err is set
// when the revision could not be rendered; Model is empty in that case.
type Frame struct {
	Revision uint64
	Model    RenderModel
	Err      error
}

// RenderBroadcaster renders every revision it receives and fans the result out
// to the registered channels (one per websocket client).
type RenderBroadcaster struct {
	// Revisions to render, usually from ConfigStore.Watch.
	input    <-chan Revision
	pipeline *Pipeline

	mutex sync.Mutex
	wg    sync.WaitGroup

	// Sends never block: a full channel loses its oldest frame.
	channelsForLiveUpdate []chan Frame

	// The most recent frame. Sent to a channel upon registration so a new
	// client draws the current chart immediately.
	latest    Frame
	hasLatest bool

	numFramesEmitted int
	err              error // Set by run(); read only after Wait() returns.

	logger logrus.FieldLogger
}

func NewRenderBroadcaster(input <-chan Revision, pipeline *Pipeline) *RenderBroadcaster {
	return &RenderBroadcaster{
		input:                 input,
		pipeline:              pipeline,
		channelsForLiveUpdate: make([]chan Frame, 0),
		logger:                logrus.WithField("tag", "RenderBroadcaster"),
	}
}

func (b *RenderBroadcaster) Start(ctx context.Context) {
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		b.err = b.run(ctx)

		logger := b.logger.WithField("numFramesEmitted", b.numFramesEmitted)
		if b.err != nil {
			logger = logger.WithError(b.err)
		}
		logger.Info("render broadcaster stopped")
	}()
}

func (b *RenderBroadcaster) Wait() {
	b.wg.Wait()
}

// Err is the reason the broadcaster stopped. Only valid after Wait returns.
func (b *RenderBroadcaster) Err() error {
	return b.err
}

// Latest returns the most recently broadcast frame, if any.
func (b *RenderBroadcaster) Latest() (Frame, bool) {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	return b.latest, b.hasLatest
}

// Register a new channel. Called from the HTTP server when a websocket
// connection is opened.
//
// The latest frame is pushed to c before c joins the live list, both under the
// broadcaster's mutex, so the client cannot miss a revision that is published
// while it registers. A client that stops reading only loses its own stale
// frames; the newest frame always stays queued on c.
func (b *RenderBroadcaster) RegisterChannel(ctx context.Context, c chan Frame) {
	traceCtx, task := trace.NewTask(ctx, "RegisterChannel")
	defer task.End()

	trace.WithRegion(traceCtx, "Lock", b.mutex.Lock)
	defer b.mutex.Unlock()

	if b.hasLatest {
		trace.WithRegion(traceCtx, "pushLatestFrameToChannel", func() {
			SendLatest(c, b.latest)
		})
	}

	b.channelsForLiveUpdate = append(b.channelsForLiveUpdate, c)

	b.logger.WithFields(logrus.Fields{
		"newChannel": c,
		"channels":   len(b.channelsForLiveUpdate),
	}).Info("registered channel")
}

// Deregister a channel. c must not be closed until this returns.
func (b *RenderBroadcaster) DeregisterChannel(ctx context.Context, c chan Frame) {
	traceCtx, task := trace.NewTask(ctx, "DeregisterChannel")
	defer task.End()

	trace.WithRegion(traceCtx, "Lock", b.mutex.Lock)
	defer b.mutex.Unlock()

	b.channelsForLiveUpdate = Filter(b.channelsForLiveUpdate, func(channel chan Frame) bool {
		return channel != c
	})

	b.logger.WithFields(logrus.Fields{
		"removedChannel": c,
		"channels":       len(b.channelsForLiveUpdate),
	}).Info("deregistered channel")
}

func (b *RenderBroadcaster) run(ctx context.Context) error {
	for {
		var revision Revision
		var open bool

		select {
		case <-ctx.Done():
			return ctx.Err()
		case revision, open = <-b.input:
		}

		if !open {
			return nil
		}

		traceCtx, task := trace.NewTask(ctx, "RenderBroadcasterLoop")

		frame := Frame{Revision: revision.Number}
		trace.WithRegion(traceCtx, "Render", func() {
			frame.Model, frame.Err = b.pipeline.Render(revision.Config)
		})

		if frame.Err != nil {
			b.logger.WithError(frame.Err).WithField("revision", revision.Number).Error("failed to render revision")
		}

		b.cacheAndBroadcast(traceCtx, frame)
		task.End()
	}
}

func (b *RenderBroadcaster) cacheAndBroadcast(traceCtx context.Context, frame Frame) {
	trace.WithRegion(traceCtx, "Lock", b.mutex.Lock)
	defer b.mutex.Unlock()

	b.numFramesEmitted++
	b.latest = frame
	b.hasLatest = true

	b.logger.WithFields(logrus.Fields{
		"revision": frame.Revision,
		"series":   len(frame.Model.Series),
	}).Debug("new frame")

	trace.WithRegion(traceCtx, "Broadcast", func() {
		for _, c := range b.channelsForLiveUpdate {
			if dropped := SendLatest(c, frame); dropped > 0 {
				b.logger.WithFields(logrus.Fields{
					"channel":  c,
					"revision": frame.Revision,
					"dropped":  dropped,
				}).Warn("client is behind, dropped stale frames")
			}
		}
	})
}
