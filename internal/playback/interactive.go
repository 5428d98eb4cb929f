package playback

// Interactive mode lets a viewer branch off the recorded timeline, edit the
// reconstructed buffer freely and then either carry the edits forward or fall
// back to the recorded trajectory. The recorded event log is never touched;
// the branch lives entirely in userCode.
//
// Both exits re-enter playback through the same asynchronous transport calls
// a seek uses, so every transition is guarded by a short time-based lock and
// re-entrant toggles are silently ignored rather than reported.

// EnterInteractive pauses playback and opens an edit branch seeded with the
// currently displayed code. It reports whether the transition happened.
func (p *Player) EnterInteractive() bool {
	p.mu.Lock()
	if p.interactive || p.transitionLockedLocked() {
		p.mu.Unlock()
		return false
	}
	p.armTransitionLocked()
	p.seq++
	p.playing = false
	p.stopLoopLocked()
	p.interactive = true
	p.userCode = p.code
	p.mu.Unlock()

	p.tr().Pause()
	return true
}

// SetUserCode replaces the branched buffer. Ignored outside interactive mode.
func (p *Player) SetUserCode(code string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.interactive {
		p.userCode = code
	}
}

// ResumeKeepEdits leaves interactive mode keeping the user's buffer on
// screen and resumes playback from the current position. The kept buffer is
// transient: the next recorded event boundary overwrites it, because the
// event log is authoritative.
func (p *Player) ResumeKeepEdits() bool {
	return p.exitInteractive(true)
}

// ResumeOriginal discards the user's edits, restores the recorded code at the
// current position and resumes playback.
func (p *Player) ResumeOriginal() bool {
	return p.exitInteractive(false)
}

func (p *Player) exitInteractive(keepEdits bool) bool {
	p.mu.Lock()
	if !p.interactive || p.transitionLockedLocked() {
		p.mu.Unlock()
		return false
	}
	p.armTransitionLocked()
	p.interactive = false

	recon := p.CodeAt(p.time)
	if keepEdits {
		p.code = p.userCode
	} else {
		p.code = recon
	}
	// Baseline the reconstruction at the current position either way, so a
	// kept buffer survives exactly until the next event boundary.
	p.lastRecon = recon
	p.userCode = ""
	p.playing = true
	p.startLoopLocked()
	raw := p.mapper.EffectiveToAudio(p.time)
	p.mu.Unlock()

	if err := p.tr().Seek(raw); err != nil {
		p.degrade("seek", err)
	}
	p.playTransport()
	return true
}

func (p *Player) transitionLockedLocked() bool {
	return p.now().Before(p.transitionUntil)
}

func (p *Player) armTransitionLocked() {
	p.transitionUntil = p.now().Add(p.transition)
}
