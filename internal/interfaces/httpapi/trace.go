package httpapi

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var apiTracer = otel.Tracer("facr-ledger/internal/interfaces/httpapi")

const (
	attrLeaguePrefix  = attribute.Key("facr.league_prefix")
	attrTeamID        = attribute.Key("facr.team_id")
	attrIngestSources = attribute.Key("facr.ingest.sources")
	attrErrorReason   = attribute.Key("facr.error.reason")
)

// startHandlerSpan opens the span of one API operation under the request
// span. Requests that are not traced, such as /healthz, get no span.
func startHandlerSpan(ctx context.Context, operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	parent := trace.SpanFromContext(ctx)
	if !parent.SpanContext().IsValid() {
		return ctx, parent
	}
	return apiTracer.Start(ctx, "httpapi.Handler."+operation, trace.WithAttributes(attrs...))
}

func leaguePrefixAttr(prefix string) attribute.KeyValue {
	return attrLeaguePrefix.String(strings.TrimSpace(prefix))
}

// annotateSpanError records the mapped failure on the active span. Only
// server side failures mark the span as errored; rejected requests keep an
// unset status.
func annotateSpanError(ctx context.Context, err error, mapped mappedError) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	span.SetAttributes(attrErrorReason.String(mapped.Reason))
	if mapped.HTTPStatus >= 500 {
		span.RecordError(err)
		span.SetStatus(codes.Error, mapped.Reason)
	}
}
