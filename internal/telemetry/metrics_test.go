// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package telemetry

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"github.com/jeranaias/chatbot-tui/internal/model"
)

func TestMetrics_Counters(t *testing.T) {
	m := NewMetrics()

	m.MessageAppended(model.SenderUser)
	m.MessageAppended(model.SenderBot)
	m.MessageAppended(model.SenderBot)
	m.ReplyComputed("greeting")
	m.CommandDispatched("/clear")
	m.ReactionAdded()
	m.AttachmentResult(AttachUnsupported)
	m.StorageError()
	m.StaleDelivery()
	m.SetPending(true)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.messages.WithLabelValues("user")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.messages.WithLabelValues("bot")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.replies.WithLabelValues("greeting")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.commands.WithLabelValues("/clear")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.reactions))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.attachments.WithLabelValues(AttachUnsupported)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.storageErrors))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.staleTokens))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.pending))

	m.SetPending(false)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.pending))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.MessageAppended(model.SenderUser)
		m.ReplyComputed("fallback")
		m.CommandDispatched("/help")
		m.ReactionAdded()
		m.AttachmentResult(AttachAccepted)
		m.StorageError()
		m.StaleDelivery()
		m.SetPending(true)
	})
	assert.Nil(t, m.Registry())
}

func TestMetrics_RegistriesAreIndependent(t *testing.T) {
	a := NewMetrics()
	b := NewMetrics()
	a.ReactionAdded()
	assert.Equal(t, 0.0, testutil.ToFloat64(b.reactions))
}

func TestServer_ServesMetrics(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	m := NewMetrics()
	m.ReplyComputed("thanks")

	srv := NewServer("127.0.0.1:0", m, zaptest.NewLogger(t))
	addr, err := srv.Listen()
	require.NoError(t, err)

	client := &http.Client{Timeout: 2 * time.Second, Transport: &http.Transport{DisableKeepAlives: true}}
	resp, err := client.Get("http://" + addr + "/metrics")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.Contains(string(body), `chatbot_replies_total{rule="thanks"} 1`), string(body))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, srv.Shutdown(ctx))
}
