// Package flashfs implements a circular, append-only log over raw NOR
// flash: a flight-recorder-style write stream with no random access, no
// file names and no metadata, that survives power loss by reconstructing
// its write pointer from the medium itself.
//
// # References:
//
// Flash device protocol (adapted from the SPI-NOR command set in
// github.com/gentam/gice):
//   - [N25Q32|Table 16: Command Set]
//   - [W25Q128|8.1.2 Instruction Set Table 1]
//
// The circular log algorithm (pointer recovery, write buffering, background
// erase) is adapted from Rotorflight/Betaflight's flashfs.c, a telemetry
// black-box recorder for flight controllers.
package flashfs
