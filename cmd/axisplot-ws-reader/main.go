// Command axisplot-ws-reader connects to a running axisplot server and dumps
// the frames it receives as CSV.
package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"net/url"
	"os"
	"strconv"

	"github.com/cactusdynamics/axisplot"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"nhooyr.io/websocket"
)

// errDone is returned by processMessage once enough frames were read.
var errDone = errors.New("done")

// Config holds the configuration for the WS reader
type Config struct {
	ServerURL string
	Output    io.Writer
	Logger    logrus.FieldLogger

	// Stop after this many complete frames. 0 reads until the server closes.
	Frames int
}

// WSReader reads frames from the axisplot /ws endpoint and writes CSV rows
type WSReader struct {
	config    Config
	csvWriter *csv.Writer

	// The layout of the frame being read; DATA messages refer to its series
	// by index.
	layout     axisplot.Layout
	framesRead int
}

func NewWSReader(config Config) *WSReader {
	return &WSReader{
		config:    config,
		csvWriter: csv.NewWriter(config.Output),
	}
}

// Connect establishes the websocket connection and processes messages until
// the requested number of frames was read or the connection closes.
func (w *WSReader) Connect(ctx context.Context) error {
	u, err := url.Parse(w.config.ServerURL)
	if err != nil {
		return fmt.Errorf("invalid server URL: %w", err)
	}

	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	u.Path = "/ws"

	w.config.Logger.WithField("url", u.String()).Info("connecting to websocket")

	conn, _, err := websocket.Dial(ctx, u.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to connect to websocket: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	if err := w.csvWriter.Write([]string{"revision", "series_id", "x", "y"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for {
		_, messageData, err := conn.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure {
				w.config.Logger.Info("connection closed normally")
				break
			}
			w.csvWriter.Flush()
			return fmt.Errorf("failed to read message: %w", err)
		}

		if err := w.processMessage(messageData); err != nil {
			if errors.Is(err, errDone) {
				break
			}
			w.config.Logger.WithError(err).Error("failed to process message")
		}
	}

	w.csvWriter.Flush()
	return w.csvWriter.Error()
}

func (w *WSReader) processMessage(messageData []byte) error {
	msg, err := axisplot.DecodeWSMessage(messageData)
	if err != nil {
		return fmt.Errorf("failed to decode message: %w", err)
	}

	switch payload := msg.Payload.(type) {
	case axisplot.Layout:
		w.layout = payload
		w.config.Logger.WithFields(logrus.Fields{
			"revision": payload.Revision,
			"series":   len(payload.Series),
		}).Debug("received layout")

	case axisplot.DataMessage:
		return w.processDataMessage(payload)

	case axisplot.FrameEndMessage:
		if payload.Error {
			w.config.Logger.WithField("revision", payload.Revision).Errorf("server failed to render frame: %s", payload.Msg)
		}

		w.framesRead++
		w.csvWriter.Flush()
		if w.config.Frames > 0 && w.framesRead >= w.config.Frames {
			return errDone
		}

	default:
		w.config.Logger.Warnf("unknown message type 0x%02x", msg.Header.Type)
	}

	return nil
}

func (w *WSReader) processDataMessage(dataMsg axisplot.DataMessage) error {
	if int(dataMsg.SeriesIndex) >= len(w.layout.Series) {
		return fmt.Errorf("DATA message for series index %d without a matching layout", dataMsg.SeriesIndex)
	}

	seriesID := w.layout.Series[dataMsg.SeriesIndex].ID
	revision := strconv.FormatUint(w.layout.Revision, 10)

	for i := 0; i < len(dataMsg.X); i++ {
		y := ""
		if !math.IsNaN(dataMsg.Y[i]) {
			y = strconv.FormatFloat(dataMsg.Y[i], 'g', -1, 64)
		}

		row := []string{
			revision,
			seriesID,
			strconv.FormatFloat(dataMsg.X[i], 'f', -1, 64),
			y,
		}
		if err := w.csvWriter.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	return nil
}

func main() {
	var (
		serverURL string
		frames    int
	)

	rootCmd := &cobra.Command{
		Use:   "axisplot-ws-reader",
		Short: "Dump the frames streamed by an axisplot server as CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := logrus.New()
			logger.SetOutput(os.Stderr)

			reader := NewWSReader(Config{
				ServerURL: serverURL,
				Output:    cmd.OutOrStdout(),
				Logger:    logger.WithField("tag", "WSReader"),
				Frames:    frames,
			})
			return reader.Connect(cmd.Context())
		},
	}

	rootCmd.Flags().StringVar(&serverURL, "url", "http://localhost:5274", "URL of the axisplot server")
	rootCmd.Flags().IntVarP(&frames, "frames", "n", 1, "Number of frames to read (0 reads until the server closes)")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
