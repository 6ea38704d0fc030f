// Package ui is the Bubble Tea front end for scoop.
//
// The model never owns collection data. It re-reads state.State from the
// synchronizer on every tick and after every command result, and each
// synchronizer call runs as a tea.Cmd so the terminal stays responsive while
// the remote store answers.
//
// Screens:
//
//   - signed out: sign-in and account creation forms (textinput)
//   - collection: header with identity and activity spinner, command bar, list
//   - add dialog, delete confirmation, failure notice, help overlay
//   - log pane: tail of the JSON log file formatted by logtail
//
// Actions are dimmed and their keys ignored while the matching busy flag is
// set: add and delete while a mutation is in flight, reload while loading.
package ui
