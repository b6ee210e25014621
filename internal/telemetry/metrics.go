// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jeranaias/chatbot-tui/internal/model"
)

const namespace = "chatbot"

// Attachment outcomes used as the result label.
const (
	AttachAccepted    = "accepted"
	AttachUnsupported = "unsupported"
	AttachTooLarge    = "too_large"
	AttachFailed      = "failed"
)

// =============================================================================
// METRICS
// =============================================================================

// Metrics holds the chat counters. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	messages      *prometheus.CounterVec
	replies       *prometheus.CounterVec
	commands      *prometheus.CounterVec
	reactions     prometheus.Counter
	attachments   *prometheus.CounterVec
	storageErrors prometheus.Counter
	staleTokens   prometheus.Counter
	pending       prometheus.Gauge
}

// NewMetrics creates the counters on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		messages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_total",
			Help:      "Messages appended to the conversation, by sender.",
		}, []string{"sender"}),
		replies: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "replies_total",
			Help:      "Bot replies computed, by matching rule.",
		}, []string{"rule"}),
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Slash commands dispatched, by command.",
		}, []string{"command"}),
		reactions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reactions_total",
			Help:      "Emoji reactions added.",
		}),
		attachments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "attachments_total",
			Help:      "Attachment attempts, by result.",
		}, []string{"result"}),
		storageErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "storage_errors_total",
			Help:      "Failed persistence writes.",
		}),
		staleTokens: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stale_deliveries_total",
			Help:      "Scheduled replies dropped because the conversation moved on.",
		}),
		pending: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "reply_pending",
			Help:      "1 while a bot reply is scheduled.",
		}),
	}
	m.registry.MustRegister(
		m.messages, m.replies, m.commands, m.reactions,
		m.attachments, m.storageErrors, m.staleTokens, m.pending,
	)
	return m
}

// Registry returns the registry holding the counters.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// =============================================================================
// RECORDING
// =============================================================================

// MessageAppended counts one message from sender.
func (m *Metrics) MessageAppended(sender model.Sender) {
	if m == nil {
		return
	}
	m.messages.WithLabelValues(sender.String()).Inc()
}

// ReplyComputed counts one reply produced by rule.
func (m *Metrics) ReplyComputed(rule string) {
	if m == nil {
		return
	}
	m.replies.WithLabelValues(rule).Inc()
}

// CommandDispatched counts one slash command.
func (m *Metrics) CommandDispatched(name string) {
	if m == nil {
		return
	}
	m.commands.WithLabelValues(name).Inc()
}

// ReactionAdded counts one reaction.
func (m *Metrics) ReactionAdded() {
	if m == nil {
		return
	}
	m.reactions.Inc()
}

// AttachmentResult counts one attachment attempt.
func (m *Metrics) AttachmentResult(result string) {
	if m == nil {
		return
	}
	m.attachments.WithLabelValues(result).Inc()
}

// StorageError counts one failed write.
func (m *Metrics) StorageError() {
	if m == nil {
		return
	}
	m.storageErrors.Inc()
}

// StaleDelivery counts one dropped reply token.
func (m *Metrics) StaleDelivery() {
	if m == nil {
		return
	}
	m.staleTokens.Inc()
}

// SetPending records whether a reply is scheduled.
func (m *Metrics) SetPending(pending bool) {
	if m == nil {
		return
	}
	if pending {
		m.pending.Set(1)
	} else {
		m.pending.Set(0)
	}
}
