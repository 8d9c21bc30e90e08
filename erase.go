package flashfs

// This file implements component E, the background erase controller,
// plus the low-level device submission/poll machinery it shares with the
// write buffer (the device is a single resource: one outstanding program
// OR erase at a time, never both, per §5).

// Tick drives the background erase controller one step. It is the
// host's cooperative entry point, called from a main loop or timer ISR;
// it never blocks. In background mode it opportunistically starts a
// sector erase whenever free space ahead of tail drops below the
// configured threshold and the device is idle. In arming-time mode it
// only erases while an arming pass (BeginArmingErase) is in progress.
func (fs *FS) Tick() error {
	fs.pollPending()
	if fs.Faulted() {
		return fs.fault
	}
	switch {
	case fs.cfg.BackgroundErase:
		fs.evaluateErase()
	case fs.arming && !fs.armDone:
		if fs.FreeSpace() >= int64(fs.cfg.ArmingEraseFreeSpace) {
			fs.armDone = true
			fs.arming = false
		} else {
			fs.evaluateErase()
		}
	}
	return nil
}

// evaluateErase starts an erase of the sector at head if free space
// ahead of tail has dropped below the armed threshold, the device is
// idle, and nothing is already faulted. Per the design's tie-break,
// exactly one sector (head) is targeted per cycle; the controller never
// speculatively erases more than one sector ahead of the threshold.
func (fs *FS) evaluateErase() {
	if fs.pending != pendingNone || fs.Faulted() {
		return
	}
	if fs.FreeSpace() < int64(fs.cfg.ArmingEraseFreeSpace) {
		_ = fs.beginErase(fs.ptrs.head)
	}
}

// BeginArmingErase starts the arming-time erase pass (§4.E). It is a
// no-op in background mode, which never needs a separate pass. Progress
// is made by subsequent Tick calls; IsArmingEraseDone reports
// completion.
func (fs *FS) BeginArmingErase() {
	if fs.cfg.BackgroundErase {
		return
	}
	fs.arming = true
	fs.armDone = false
}

// IsArmingEraseDone reports whether the arming-time pass has raised free
// space to at least the armed threshold. Always true in background
// mode, which has no separate arming pass to wait for.
func (fs *FS) IsArmingEraseDone() bool {
	if fs.cfg.BackgroundErase {
		return true
	}
	return fs.armDone
}

// driveEmergencyErase is the foreground path: the writer has advanced to
// within one page of head (or the region is already full) and
// background erase has not kept up. It stalls the caller, erasing
// sectors at head to completion, until invariant 4 is restored.
//
// A region of a single sector can never be reclaimed this way: erasing
// head would always overlap the live range, so invariant 4 rules it out
// permanently once the sector is full. That configuration reports
// ErrEndOfMedium rather than attempting an erase it can never legally
// issue.
func (fs *FS) driveEmergencyErase() error {
	if fs.geo.NumSectors() < 2 {
		return ErrEndOfMedium
	}
	for fs.ptrs.full || fs.geo.freeAhead(&fs.ptrs) < int64(fs.geo.PageSize) {
		if fs.pending == pendingNone {
			if err := fs.beginErase(fs.ptrs.head); err != nil {
				return err
			}
		}
		for !fs.dev.IsReady() {
			// Cooperative busy-wait: this is one of the three
			// suspension points the design allows (§5).
		}
		fs.pollPending()
		if fs.Faulted() {
			return fs.fault
		}
	}
	return nil
}

// beginProgram issues a three-phase page program and marks it pending.
func (fs *FS) beginProgram(addr int64, data []byte) error {
	if err := fs.dev.ProgramBegin(addr); err != nil {
		fs.latchFault(err)
		return fs.fault
	}
	if err := fs.dev.ProgramContinue(data); err != nil {
		fs.latchFault(err)
		return fs.fault
	}
	if err := fs.dev.ProgramFinish(); err != nil {
		fs.latchFault(err)
		return fs.fault
	}
	fs.pending = pendingProgram
	fs.pendingAddr = addr
	return nil
}

// beginErase issues a sector erase and marks it pending.
func (fs *FS) beginErase(addr int64) error {
	if err := fs.dev.EraseSector(addr); err != nil {
		fs.latchFault(err)
		return fs.fault
	}
	fs.pending = pendingErase
	fs.pendingAddr = addr
	return nil
}

// pollPending checks whether the in-flight operation has completed and,
// if so, advances the bookkeeping pointers that ordering depends on:
// tail only after a program lands, head (and eraseFront) only after an
// erase lands (§5 Ordering guarantees). It never blocks.
func (fs *FS) pollPending() bool {
	if fs.pending == pendingNone {
		return true
	}
	if !fs.dev.IsReady() {
		return false
	}
	switch fs.pending {
	case pendingProgram:
		fs.geo.advanceTail(&fs.ptrs, int64(fs.geo.PageSize))
	case pendingErase:
		fs.geo.advanceHead(&fs.ptrs)
		fs.ptrs.eraseFront = fs.geo.addMod(fs.pendingAddr, int64(fs.geo.SectorSize))
	}
	fs.pending = pendingNone
	return true
}

// blockUntilPendingDone busy-polls until no device operation is in
// flight. Used before starting a new program (the device can only run
// one operation at a time) and by FlushSync.
func (fs *FS) blockUntilPendingDone() error {
	for fs.pending != pendingNone {
		if fs.dev.IsReady() {
			fs.pollPending()
			break
		}
	}
	if fs.Faulted() {
		return fs.fault
	}
	return nil
}
