// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session holds the live chat state shared by every front end.
//
// A Session owns the conversation, the user's preferences, the response
// engine and the persistence adapter. Front ends submit input, receive a
// Pending token describing the reply to show later, and hand the token back
// to Deliver when their timer fires.
//
// # Key Types
//
//   - Session: conversation state guarded by a mutex
//   - Pending: a scheduled bot reply, valid while its generation is current
//   - Outcome: what a submission did and what the front end should show
//
// # Usage
//
//	s := session.New(adapter, session.DefaultConfig(), session.WithLogger(logger))
//	s.Start()
//	defer s.Close()
//
//	out, err := s.Submit("hello")
//	if err != nil {
//	    return err // ErrEmptyInput or ErrReplyPending
//	}
//	time.Sleep(out.Pending.Delay)
//	s.Deliver(out.Pending)
//
// # Generations
//
// Clearing the conversation bumps the generation counter, so tokens issued
// before the clear are dropped by Deliver instead of appending replies to
// the fresh conversation.
package session
