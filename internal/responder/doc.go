// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package responder computes the bot's scripted replies.
//
// Replies come from an ordered list of keyword rules. Input is normalized
// (NFKC, then case folded) and each rule's keywords are tested as plain
// substrings; the first rule with a hit wins. When nothing matches, a reply is
// drawn uniformly from the fallback pool.
//
// # Key Types
//
//   - Engine: Rule matcher with injectable clock and random source
//   - Rule: Named keyword set with a reply template
//   - Reply: The chosen text plus the rule that produced it
//
// # Usage
//
//	eng := responder.New(responder.WithBotName("ChatBot"))
//	fmt.Println(eng.Reply("hello there"))
package responder
