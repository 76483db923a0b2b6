package service

import "errors"

// 房間指令可能回傳的錯誤，全部都只影響單一指令，不會讓服務掛掉
var (
	ErrRoomNotFound    = errors.New("room does not exist")
	ErrGuestNotFound   = errors.New("guest does not exist in a room")
	ErrVoteOutOfRange  = errors.New("vote value is out of boundaries")
	ErrVoteRevealed    = errors.New("can't vote when revealed")
	ErrNotInRound      = errors.New("guest is not in round")
	ErrIncompleteVotes = errors.New("not all guests voted")
	ErrAlreadyRevealed = errors.New("room is already revealed")
	ErrNotRevealed     = errors.New("can't start new round when cards are not revealed")
)
