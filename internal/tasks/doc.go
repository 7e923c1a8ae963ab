// Package tasks reconciles a streamed search against the user's intent.
//
// # Core Operations
//
//  1. [Reconciler.Run] : consume one search stream
//     - progress events become non-blocking [Update] values
//     - unique results match immediately
//     - multiple results go to the [Policy] when auto-select is on, otherwise to the [Gate]
//     - anything else is recorded missing
//     - a done event finalizes the [models.Session]
//
//  2. [Coordinator.Start] : run the reconciler in its own goroutine
//     - cancels and waits for the previous run first
//     - gives every run a fresh session
//     - optionally stores finished runs through a [RunRecorder]
//
// # Disambiguation
//
// A [Gate] resolves one ambiguous result at a time and the reconciler does not read the next event
// until it answers. [PromptGate] hands [*Prompt] values to an interactive UI, [TerminalGate] asks on
// stdin, [RememberingGate] replays stored choices. A prompt whose run has been canceled refuses
// resolution with [shared.ErrStalePrompt].
//
// # Progress Reporting
//
// Progress updates use select with default and may be dropped. Outcome and summary updates block until
// received or the run is canceled, so the receiver must keep draining the channel.
package tasks
