// Package ui holds the terminal styling shared by rpint's commands and the
// console panel: the color palette, status symbols, sparklines and the
// tables printed by `rpint lldp` and `rpint config show`.
//
// Colors are ANSI codes. Call DisableColors when output is not a terminal.
package ui
