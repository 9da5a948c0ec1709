package ingest_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/spool/pkg/ingest"
	"github.com/papercomputeco/spool/pkg/logger"
)

var _ = Describe("SSE", func() {
	It("publishes each SSE event on the channel named by its type", func() {
		accept := make(chan string, 1)
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			accept <- r.Header.Get("Accept")
			w.Header().Set("Content-Type", "text/event-stream")
			fmt.Fprint(w, "event: trace\ndata: {\"type\":\"Started\",\"span_id\":\"a\"}\n\n")
			fmt.Fprint(w, ": keep-alive\n\n")
			fmt.Fprint(w, "data: {\"type\":\"Started\",\"span_id\":\"b\"}\n\n")
			fmt.Fprint(w, "event: message\ndata: not json\n\n")
		}))
		defer server.Close()

		rec := &recorder{}
		src := ingest.NewSSE(&ingest.SSEConfig{
			URL:            server.URL,
			DefaultChannel: "debug",
			Logger:         logger.Nop(),
		})
		Expect(src.Run(context.Background(), rec)).To(Succeed())
		Expect(accept).To(Receive(Equal("text/event-stream")))

		events := rec.all()
		Expect(events).To(HaveLen(2))
		Expect(events[0]).To(Equal(published{Channel: "trace", SpanID: "a", Type: "Started"}))
		Expect(events[1].Channel).To(Equal("debug"))
	})

	It("reports unexpected statuses", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer server.Close()

		src := ingest.NewSSE(&ingest.SSEConfig{URL: server.URL, DefaultChannel: "trace", Logger: logger.Nop()})
		Expect(src.Run(context.Background(), &recorder{})).To(MatchError(ingest.ErrUnexpectedStatus))
	})
})
