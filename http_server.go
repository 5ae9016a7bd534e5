package axisplot

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"

	"github.com/sirupsen/logrus"
	"nhooyr.io/websocket"
)

// Frames queued per websocket client. When a client falls behind, its oldest
// queued frames are dropped.
const bufferSize = 16

type HttpServer struct {
	store       *ConfigStore
	pipeline    *Pipeline
	broadcaster *RenderBroadcaster
	host        string
	port        uint16
	title       string
	mux         *http.ServeMux
	logger      logrus.FieldLogger
}

func NewHttpServer(store *ConfigStore, pipeline *Pipeline, broadcaster *RenderBroadcaster, host string, port uint16, title string) *HttpServer {
	s := &HttpServer{
		store:       store,
		pipeline:    pipeline,
		broadcaster: broadcaster,
		host:        host,
		port:        port,
		title:       title,
		mux:         http.NewServeMux(),
		logger:      logrus.WithField("tag", "HttpServer"),
	}

	s.mux.HandleFunc("GET /{$}", s.handleIndex)
	s.mux.HandleFunc("GET /ws", s.handleWebSocket)
	s.mux.HandleFunc("GET /render", s.handleRender)

	s.mux.HandleFunc("GET /config", s.handleGetConfig)
	s.mux.HandleFunc("GET /config/history", s.handleHistory)
	s.mux.HandleFunc("PUT /config/time-range", s.handleSetTimeRange)

	s.mux.HandleFunc("POST /config/axes", s.handleAddAxis)
	s.mux.HandleFunc("PUT /config/axes/{id}", s.handleUpdateAxis)
	s.mux.HandleFunc("DELETE /config/axes/{id}", s.handleRemoveAxis)

	s.mux.HandleFunc("POST /config/series", s.handleAddSeries)
	s.mux.HandleFunc("PUT /config/series/{id}", s.handleUpdateSeries)
	s.mux.HandleFunc("DELETE /config/series/{id}", s.handleRemoveSeries)

	return s
}

func (s *HttpServer) Addr() string {
	return net.JoinHostPort(s.host, strconv.Itoa(int(s.port)))
}

// Handler exposes the routes without listening, for embedding and tests.
func (s *HttpServer) Handler() http.Handler {
	return s.mux
}

func (s *HttpServer) Run(openBrowserOnStart bool) error {
	url := fmt.Sprintf("http://%s", s.Addr())
	s.logger.Infof("starting HTTP server at %s", url)

	listener, err := net.Listen("tcp", s.Addr())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.Addr(), err)
	}

	if openBrowserOnStart {
		if err := openBrowser(url); err != nil {
			s.logger.WithError(err).Warn("failed to start web browser automatically")
		}
	}

	return http.Serve(listener, s.mux)
}

// currentFrame returns the broadcast frame for the current revision, or
// renders one if the broadcaster has not caught up yet.
func (s *HttpServer) currentFrame() Frame {
	current := s.store.Current()

	if s.broadcaster != nil {
		if frame, ok := s.broadcaster.Latest(); ok && frame.Revision == current.Number {
			return frame
		}
	}

	model, err := s.pipeline.Render(current.Config)
	return Frame{Revision: current.Number, Model: model, Err: err}
}

func (s *HttpServer) handleIndex(w http.ResponseWriter, req *http.Request) {
	frame := s.currentFrame()
	if frame.Err != nil {
		http.Error(w, frame.Err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := RenderECharts(w, frame.Model, s.title); err != nil {
		s.logger.WithError(err).Error("failed to render chart page")
	}
}

func (s *HttpServer) handleRender(w http.ResponseWriter, req *http.Request) {
	frame := s.currentFrame()
	if frame.Err != nil {
		s.writeError(w, http.StatusInternalServerError, frame.Err)
		return
	}

	s.writeJSON(w, http.StatusOK, struct {
		Revision uint64      `json:"revision"`
		Model    RenderModel `json:"model"`
	}{frame.Revision, frame.Model})
}

func (s *HttpServer) handleGetConfig(w http.ResponseWriter, req *http.Request) {
	s.writeJSON(w, http.StatusOK, s.store.Current())
}

func (s *HttpServer) handleHistory(w http.ResponseWriter, req *http.Request) {
	s.writeJSON(w, http.StatusOK, s.store.History())
}

type timeRangeRequest struct {
	Days *int `json:"days"`
}

func (s *HttpServer) handleSetTimeRange(w http.ResponseWriter, req *http.Request) {
	var body timeRangeRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("malformed time range: %w", err))
		return
	}

	if body.Days == nil || *body.Days <= 0 || *body.Days > MaxTimeRangeDays {
		s.writeError(w, http.StatusBadRequest, ErrInvalidTimeRange)
		return
	}

	days := *body.Days
	s.apply(w, func(c ChartConfig) ChartConfig {
		return SetTimeRange(c, days)
	})
}

func (s *HttpServer) handleAddAxis(w http.ResponseWriter, req *http.Request) {
	s.apply(w, AddAxis)
}

func axisExists(c ChartConfig, id string) error {
	if _, ok := c.FindAxis(id); !ok {
		return fmt.Errorf("axis %q: %w", id, ErrNotFound)
	}
	return nil
}

func seriesExists(c ChartConfig, id string) error {
	if _, ok := c.FindSeries(id); !ok {
		return fmt.Errorf("series %q: %w", id, ErrNotFound)
	}
	return nil
}

func (s *HttpServer) handleUpdateAxis(w http.ResponseWriter, req *http.Request) {
	id := req.PathValue("id")

	var axis AxisConfig
	if err := json.NewDecoder(req.Body).Decode(&axis); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("malformed axis: %w", err))
		return
	}
	if axis.ID == "" {
		axis.ID = id
	}

	s.edit(w, func(c ChartConfig) (ChartConfig, error) {
		if err := axisExists(c, id); err != nil {
			return c, err
		}
		return UpdateAxis(c, id, axis), nil
	})
}

func (s *HttpServer) handleRemoveAxis(w http.ResponseWriter, req *http.Request) {
	id := req.PathValue("id")

	s.edit(w, func(c ChartConfig) (ChartConfig, error) {
		if err := axisExists(c, id); err != nil {
			return c, err
		}
		return RemoveAxis(c, id), nil
	})
}

func (s *HttpServer) handleAddSeries(w http.ResponseWriter, req *http.Request) {
	s.edit(w, func(c ChartConfig) (ChartConfig, error) {
		if !CanAddSeries(c) {
			return c, ErrNoAxes
		}
		return AddSeries(c), nil
	})
}

func (s *HttpServer) handleUpdateSeries(w http.ResponseWriter, req *http.Request) {
	id := req.PathValue("id")

	var series SeriesConfig
	if err := json.NewDecoder(req.Body).Decode(&series); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("malformed series: %w", err))
		return
	}
	if series.ID == "" {
		series.ID = id
	}

	s.edit(w, func(c ChartConfig) (ChartConfig, error) {
		if err := seriesExists(c, id); err != nil {
			return c, err
		}
		return UpdateSeries(c, id, series), nil
	})
}

func (s *HttpServer) handleRemoveSeries(w http.ResponseWriter, req *http.Request) {
	id := req.PathValue("id")

	s.edit(w, func(c ChartConfig) (ChartConfig, error) {
		if err := seriesExists(c, id); err != nil {
			return c, err
		}
		return RemoveSeries(c, id), nil
	})
}

func (s *HttpServer) apply(w http.ResponseWriter, mutation func(ChartConfig) ChartConfig) {
	s.edit(w, func(c ChartConfig) (ChartConfig, error) {
		return mutation(c), nil
	})
}

// edit runs the lookup and the mutation under the store's lock, so a
// concurrent edit cannot remove the target in between.
func (s *HttpServer) edit(w http.ResponseWriter, edit func(ChartConfig) (ChartConfig, error)) {
	revision, err := s.store.Edit(edit)
	switch {
	case errors.Is(err, ErrNotFound):
		s.writeError(w, http.StatusNotFound, err)
	case errors.Is(err, ErrNoAxes):
		s.writeError(w, http.StatusConflict, err)
	case err != nil:
		s.writeError(w, http.StatusUnprocessableEntity, err)
	default:
		s.writeJSON(w, http.StatusOK, revision)
	}
}

func (s *HttpServer) handleWebSocket(w http.ResponseWriter, req *http.Request) {
	c, err := websocket.Accept(w, req, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		s.logger.WithError(err).Warn("failed to accept new websocket connection")
		return
	}

	ctx := req.Context()
	ctx = c.CloseRead(ctx) // Clients never send anything; we only write.

	channel := make(chan Frame, bufferSize)
	wg := sync.WaitGroup{}
	wg.Add(1)

	go func() {
		defer wg.Done()
		for {
			select {
			case frame := <-channel:
				messages, err := EncodeFrame(frame)
				if err != nil {
					s.logger.WithError(err).WithField("revision", frame.Revision).Error("failed to encode frame")
					c.Close(websocket.StatusInternalError, "encode failed")
					return
				}

				for _, msg := range messages {
					if err := c.Write(ctx, websocket.MessageBinary, msg); err != nil {
						// At this point the websocket closed, so we don't even need to send anything
						s.logger.WithError(err).Warn("websocket write failed and closed")
						return
					}
				}
			case <-ctx.Done():
				s.logger.Info("client closed connection or context canceled")
				c.Close(websocket.StatusNormalClosure, "")
				return
			}
		}
	}()

	// The channel is already being received from in another goroutine, so
	// registering (which pushes the latest frame) cannot block on it.
	s.broadcaster.RegisterChannel(ctx, channel)

	wg.Wait()
	s.broadcaster.DeregisterChannel(ctx, channel)
	close(channel)
}

func (s *HttpServer) setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Headers", "content-type")
	w.Header().Set("Access-Control-Allow-Methods", "*")
}

func (s *HttpServer) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	s.setCORSHeaders(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.WithError(err).Error("failed to encode response")
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *HttpServer) writeError(w http.ResponseWriter, status int, err error) {
	s.logger.WithError(err).WithField("status", status).Debug("request failed")
	s.writeJSON(w, status, errorResponse{Error: err.Error()})
}
