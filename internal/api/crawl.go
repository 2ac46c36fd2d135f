package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/pagesift/pagesift/internal/types"
)

// handleCrawl runs a crawl request synchronously and replies with the
// aggregated result. Successful results are also published to the queue
// when one is configured; publishing never delays the response.
func (s *Server) handleCrawl(w http.ResponseWriter, r *http.Request) {
	var req types.CrawlRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	start := time.Now()
	result, err := s.crawler.Crawl(r.Context(), &req)
	elapsed := time.Since(start)

	if err != nil {
		s.metrics.CrawlsTotal.WithLabelValues("error").Inc()
		s.metrics.CrawlDuration.Observe(elapsed.Seconds())
		status, msg := crawlFailure(err)
		jsonError(w, status, msg)
		return
	}

	s.metrics.CrawlsTotal.WithLabelValues("ok").Inc()
	s.metrics.CrawlDuration.Observe(elapsed.Seconds())
	s.metrics.PagesCrawled.Add(float64(result.TotalPagesCrawled))
	for i := range result.Results {
		if result.Results[i].Error != nil {
			s.metrics.DomainErrors.WithLabelValues(kindFromMessage(*result.Results[i].Error)).Inc()
		}
	}

	if s.publisher != nil {
		go s.publishResult(result)
	}

	jsonResponse(w, http.StatusOK, result)
}

func (s *Server) publishResult(result *types.CrawlResult) {
	if err := s.publisher.Publish(result); err != nil {
		s.metrics.QueuePublishes.WithLabelValues("error").Inc()
		s.logger.Error("publishing crawl result", "error", err)
		return
	}
	s.metrics.QueuePublishes.WithLabelValues("ok").Inc()
}

// crawlFailure maps a request-fatal crawl error onto the wire. A timeout
// replies 200 with a plain message; everything else is a 400 carrying the
// error text.
func crawlFailure(err error) (int, string) {
	if errors.Is(err, types.ErrTimeout) {
		return http.StatusOK, "Crawling exceeded the time limit"
	}
	return http.StatusBadRequest, err.Error()
}

// kindFromMessage recovers the error kind label from a per-domain error
// string, which carries its kind as a prefix.
func kindFromMessage(msg string) string {
	switch {
	case strings.HasPrefix(msg, "Request error"):
		return "request"
	case strings.HasPrefix(msg, "Invalid URL"):
		return "url"
	case strings.HasPrefix(msg, "Selector error"):
		return "selector"
	case strings.HasPrefix(msg, "Timeout error"):
		return "timeout"
	case strings.HasPrefix(msg, "Date parsing error"):
		return "date"
	default:
		return "other"
	}
}
