// Command harness posts one large JSON payload over HTTPS and exits non-zero
// if the exchange fails.
package main

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/taheris/bad-write-retry-example/client"
	"github.com/taheris/bad-write-retry-example/domain/entities"
	"github.com/taheris/bad-write-retry-example/domain/errors"
	"github.com/taheris/bad-write-retry-example/domain/ports"
	"github.com/taheris/bad-write-retry-example/log"
)

const (
	targetURL   = "https://eu.httpbin.org/post"
	payloadSize = 1000000
)

func main() {
	logger := log.New()

	c, err := client.New(client.WithLogger(logger))
	if err != nil {
		logger.Error("unable to create client", "error", err)
		os.Exit(1)
	}

	err = run(c, logger)
	c.Close()
	if err != nil {
		os.Exit(1)
	}
}

// run sends the fixed payload through d and waits for its result.
func run(d ports.Dispatcher, logger *slog.Logger) error {
	req := entities.MustHTTPRequest(http.MethodPost, targetURL, bytes.Repeat([]byte{'X'}, payloadSize))

	resp, err := client.Await(d.Request(req))
	if err != nil {
		logger.Error("no response delivered", "error", err)
		return err
	}
	if resp.Failed() {
		detail := errors.ToErrorDetail(resp.Err)
		logger.Error("exchange failed", "error", resp.Text(), "type", detail.Type, "code", detail.Code)
		return fmt.Errorf("exchange failed: %w", resp.Err)
	}

	logger.Info("exchange succeeded", "bytes", len(resp.Body))
	return nil
}
