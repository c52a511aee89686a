// Command picksort is the terminal shell over the dataset classifier core:
// project management, legacy import, export runs, and configuration edits.
package main
