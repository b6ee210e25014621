// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package telemetry provides chat activity counters for chatbot.
//
// Counters live on a dedicated Prometheus registry so tests and multiple
// sessions never collide with the global default registry.
//
// # Key Types
//
//   - Metrics: counters for messages, replies, commands, reactions and attachments
//   - Server: optional HTTP endpoint exposing the registry at /metrics
//
// # Usage
//
//	m := telemetry.NewMetrics()
//	m.MessageAppended(model.SenderUser)
//
//	srv := telemetry.NewServer("127.0.0.1:9464", m, logger)
//	addr, err := srv.Listen()
//	defer srv.Shutdown(ctx)
//
// # Privacy
//
// Only counts are recorded. Message text never leaves the process, and the
// endpoint is disabled unless metrics.addr is set.
package telemetry
