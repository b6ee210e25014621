// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides the chatbot command line.
//
// Running chatbot with no arguments opens the full-screen chat. The
// subcommands work on the same persisted conversation:
//
//	chatbot chat                      line-mode chat with input history
//	chatbot send TEXT...              send one message and print the reply
//	chatbot history [--json] [-n N]   print the stored conversation
//	chatbot react ID EMOJI            react to a stored message
//	chatbot attach PATH               attach an image
//	chatbot clear                     erase the stored history
//	chatbot export [-f FORMAT] [-o FILE|--dir DIR]
//	chatbot prefs [--theme K] [--dark on|off]
//	chatbot config path|show|init
//	chatbot version
//
// Global flags select the config file (--config), the data directory
// (--data-dir), the storage backend (--backend) and debug logging
// (--verbose). --ephemeral keeps everything in memory.
//
// Output is coloured only when stdout is a terminal and NO_COLOR is unset.
package cli
