package yx5300

func onOff(b bool) byte {
	if b {
		return OptOn
	}
	return OptOff
}

// Device selects the storage device.
func (p *Player) Device(devID byte) bool {
	return p.Send(CmdSelectDevice, 0, devID)
}

// Equalizer selects an equalizer preset, unknown presets select EqNormal.
func (p *Player) Equalizer(eqID byte) bool {
	if eqID > EqBass {
		eqID = EqNormal
	}
	return p.Send(CmdSetEqualizer, 0, eqID)
}

// Sleep puts the module into sleep mode.
func (p *Player) Sleep() bool { return p.Send(CmdSleepMode, 0, 0) }

// WakeUp wakes the module from sleep mode.
func (p *Player) WakeUp() bool { return p.Send(CmdWakeUp, 0, 0) }

// Shuffle turns shuffle play on/off.
func (p *Player) Shuffle(on bool) bool { return p.Send(CmdShufflePlay, 0, onOff(on)) }

// Repeat turns repeat of the current file on/off.
func (p *Player) Repeat(on bool) bool { return p.Send(CmdSetSingleCycle, 0, onOff(on)) }

// Reset resets the module.
func (p *Player) Reset() bool { return p.Send(CmdReset, 0, 0) }

// PlayNext plays the next track.
func (p *Player) PlayNext() bool { return p.Send(CmdNextSong, 0, 0) }

// PlayPrev plays the previous track.
func (p *Player) PlayPrev() bool { return p.Send(CmdPrevSong, 0, 0) }

// PlayStop stops playback.
func (p *Player) PlayStop() bool { return p.Send(CmdStopPlay, 0, 0) }

// PlayPause pauses playback.
func (p *Player) PlayPause() bool { return p.Send(CmdPause, 0, 0) }

// PlayStart resumes playback.
func (p *Player) PlayStart() bool { return p.Send(CmdPlay, 0, 0) }

// PlayTrack plays the track with the given index.
func (p *Player) PlayTrack(track byte) bool { return p.Send(CmdPlayWithIndex, 0, track) }

// PlayTrackRepeat plays the file in a loop.
func (p *Player) PlayTrackRepeat(file byte) bool { return p.Send(CmdSingleCycle, 0, file) }

// PlaySpecific plays a file in a folder.
func (p *Player) PlaySpecific(folder, file byte) bool {
	return p.Send(CmdPlayFolderFile, folder, file)
}

// PlayFolderRepeat plays all files of a folder in a loop.
func (p *Player) PlayFolderRepeat(folder byte) bool {
	return p.Send(CmdFolderCycle, folder, 0)
}

// PlayFolderShuffle plays files of a folder in random order.
func (p *Player) PlayFolderShuffle(folder byte) bool {
	return p.Send(CmdShuffleFolder, folder, 0)
}

// PlayWithVolume plays a track at the given volume.
func (p *Player) PlayWithVolume(track, vol byte) bool {
	if vol > MaxVolume {
		vol = MaxVolume
	}
	return p.Send(CmdPlayWithVolume, vol, track)
}

// Volume sets the volume, clamped to VolumeMax.
func (p *Player) Volume(vol byte) bool {
	if vol > MaxVolume {
		vol = MaxVolume
	}
	return p.Send(CmdSetVolume, 0, vol)
}

// VolumeMax returns the highest volume level.
func (p *Player) VolumeMax() byte { return MaxVolume }

// VolumeInc increases volume by one.
func (p *Player) VolumeInc() bool { return p.Send(CmdVolumeUp, 0, 0) }

// VolumeDec decreases volume by one.
func (p *Player) VolumeDec() bool { return p.Send(CmdVolumeDown, 0, 0) }

// VolumeMute turns the DAC off when muted.
func (p *Player) VolumeMute(mute bool) bool { return p.Send(CmdSetDAC, 0, onOff(!mute)) }

// VolumeQuery queries the volume level.
func (p *Player) VolumeQuery() bool { return p.Send(CmdQueryVolume, 0, 0) }

// QueryStatus queries the device status.
func (p *Player) QueryStatus() bool { return p.Send(CmdQueryStatus, 0, 0) }

// QueryVolume is the same as VolumeQuery.
func (p *Player) QueryVolume() bool { return p.VolumeQuery() }

// QueryEqualizer queries the equalizer preset.
func (p *Player) QueryEqualizer() bool { return p.Send(CmdQueryEqualizer, 0, 0) }

// QueryFolderFiles queries the number of files in a folder.
func (p *Player) QueryFolderFiles(folder byte) bool {
	return p.Send(CmdQueryFldrFiles, 0, folder)
}

// QueryFolderCount queries the number of folders.
func (p *Player) QueryFolderCount() bool { return p.Send(CmdQueryTotFldr, 0, 0) }

// QueryFilesCount queries the number of files on the device.
func (p *Player) QueryFilesCount() bool { return p.Send(CmdQueryTotFiles, 0, 0) }

// QueryFile queries the index of the playing file.
func (p *Player) QueryFile() bool { return p.Send(CmdQueryPlaying, 0, 0) }
