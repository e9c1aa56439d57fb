package main

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	probeClients  int
	probeURL      string
	probeDuration time.Duration
)

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Load-test the websocket endpoint of a running server",
	Long: `Connects many concurrent websocket clients to a running "devfest serve"
and counts the schedule messages they receive until --duration elapses or
the command is interrupted.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if probeDuration > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, probeDuration)
			defer cancel()
		}
		res := runProbe(ctx, probeURL, probeClients, 10*time.Millisecond, logger)
		fmt.Fprintf(cmd.OutOrStdout(), "clients: %d connected, %d failed; messages received: %d\n",
			res.Connected, res.Failed, res.Messages)
		return nil
	},
}

func init() {
	probeCmd.Flags().IntVar(&probeClients, "clients", 100, "Number of concurrent websocket clients")
	probeCmd.Flags().StringVar(&probeURL, "url", "ws://localhost:8080/ws", "Websocket URL of the schedule server")
	probeCmd.Flags().DurationVar(&probeDuration, "duration", 30*time.Second, "How long to keep clients connected (0 until interrupted)")
}

type probeResult struct {
	Connected, Failed, Messages int64
}

// runProbe connects clients to url, staggered by delay, and reads from them
// until ctx is done or the server closes the connection.
func runProbe(ctx context.Context, url string, clients int, delay time.Duration, log *zap.Logger) probeResult {
	log.Info("starting websocket probe", zap.Int("clients", clients), zap.String("url", url))

	var connected, failed, messages atomic.Int64
	var wg sync.WaitGroup

launch:
	for i := 0; i < clients; i++ {
		wg.Add(1)
		go func(clientID int) {
			defer wg.Done()

			conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
			if err != nil {
				failed.Add(1)
				log.Debug("probe client failed to connect", zap.Int("client", clientID), zap.Error(err))
				return
			}
			defer conn.Close()
			connected.Add(1)

			// unblock ReadMessage when the probe ends
			stop := context.AfterFunc(ctx, func() { conn.Close() })
			defer stop()

			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					if ctx.Err() == nil && websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
						log.Debug("probe client closed unexpectedly", zap.Int("client", clientID), zap.Error(err))
					}
					return
				}
				messages.Add(1)
			}
		}(i)

		// Stagger clients to avoid a thundering herd.
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			break launch
		}
	}
	wg.Wait()

	res := probeResult{Connected: connected.Load(), Failed: failed.Load(), Messages: messages.Load()}
	log.Info("websocket probe finished",
		zap.Int64("connected", res.Connected), zap.Int64("failed", res.Failed), zap.Int64("messages", res.Messages))
	return res
}
