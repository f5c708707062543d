package otel

import (
	"context"
	"iter"
	"time"

	"github.com/aiacademy/tutor/pkg/provider"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/semconv/v1.38.0/genaiconv"
)

type Completer interface {
	Observable
	provider.Completer
}

type observableCompleter struct {
	model    string
	provider string

	completer provider.Completer

	tokenUsageMetric        genaiconv.ClientTokenUsage
	operationDurationMetric genaiconv.ClientOperationDuration
}

func NewCompleter(provider, model string, p provider.Completer) Completer {
	meter := otel.Meter(instrumentationName)

	tokenUsageMetric, _ := genaiconv.NewClientTokenUsage(meter)
	operationDurationMetric, _ := genaiconv.NewClientOperationDuration(meter)

	return &observableCompleter{
		completer: p,

		model:    model,
		provider: provider,

		tokenUsageMetric:        tokenUsageMetric,
		operationDurationMetric: operationDurationMetric,
	}
}

func (p *observableCompleter) otelSetup() {
}

func (p *observableCompleter) Complete(ctx context.Context, messages []provider.Message, options *provider.CompleteOptions) iter.Seq2[*provider.Completion, error] {
	return func(yield func(*provider.Completion, error) bool) {
		ctx, span := otel.Tracer(instrumentationName).Start(ctx, "chat "+p.model)
		defer span.End()

		span.SetAttributes(
			String("gen_ai.provider.name", p.provider),
			String("gen_ai.request.model", p.model),
			Int("gen_ai.request.messages", len(messages)),
		)

		timestamp := time.Now()

		var usage provider.Usage
		var responseModel string

		for completion, err := range p.completer.Complete(ctx, messages, options) {
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())

				yield(nil, err)
				return
			}

			if completion.Model != "" {
				responseModel = completion.Model
			}

			if completion.Usage != nil {
				usage.InputTokens += completion.Usage.InputTokens
				usage.OutputTokens += completion.Usage.OutputTokens
			}

			if !yield(completion, nil) {
				return
			}
		}

		if responseModel == "" {
			responseModel = p.model
		}

		providerName := genaiconv.ProviderNameAttr(p.provider)

		p.operationDurationMetric.Record(ctx, time.Since(timestamp).Seconds(),
			genaiconv.OperationNameChat,
			providerName,
			KeyValues([]KeyValue{
				p.operationDurationMetric.AttrRequestModel(p.model),
				p.operationDurationMetric.AttrResponseModel(responseModel),
			}, EndUserAttrs(ctx))...,
		)

		for _, count := range []struct {
			tokens int
			typ    genaiconv.TokenTypeAttr
		}{
			{usage.InputTokens, genaiconv.TokenTypeInput},
			{usage.OutputTokens, genaiconv.TokenTypeOutput},
		} {
			if count.tokens <= 0 {
				continue
			}

			p.tokenUsageMetric.Record(ctx, int64(count.tokens),
				genaiconv.OperationNameChat,
				providerName,
				count.typ,
				KeyValues([]KeyValue{
					p.tokenUsageMetric.AttrRequestModel(p.model),
					p.tokenUsageMetric.AttrResponseModel(responseModel),
				}, EndUserAttrs(ctx))...,
			)
		}
	}
}
