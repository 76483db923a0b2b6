package models

import "testing"

func testDeck() Deck {
	return Deck{
		Name: "t-shirt",
		Cards: []Card{
			{DisplayName: "S", Value: 1},
			{DisplayName: "M", Value: 2},
		},
	}
}

func TestNewRoomInitialState(t *testing.T) {
	admin := NewGuest("alice", true)
	room := NewRoom("sprint", testDeck(), admin)

	if room.ID == "" {
		t.Fatal("expected room id assigned")
	}
	if room.AdminID != admin.ID {
		t.Fatalf("expected admin id %s, got %s", admin.ID, room.AdminID)
	}
	if room.IsRevealed {
		t.Fatal("new room must start in voting state")
	}
	if room.CurrentRound == nil || room.PreviousRounds == nil {
		t.Fatal("round collections must be initialized, not nil")
	}
}

func TestRoundVoteBookkeeping(t *testing.T) {
	admin := NewGuest("alice", true)
	room := NewRoom("sprint", testDeck(), admin)

	room.AddPendingVote(admin.ID)
	room.AddPendingVote(admin.ID) // 重複加入不產生第二筆
	if len(room.CurrentRound) != 1 {
		t.Fatalf("expected single entry, got %d", len(room.CurrentRound))
	}
	if vote := room.CurrentRound.VoteOf(admin.ID); vote == nil || vote.VoteValue != nil {
		t.Fatalf("expected pending vote, got %+v", vote)
	}

	value := 1
	room.SetVote(admin.ID, &value)
	if vote := room.CurrentRound.VoteOf(admin.ID); vote == nil || vote.VoteValue == nil || *vote.VoteValue != 1 {
		t.Fatalf("expected vote updated in place, got %+v", vote)
	}
	if len(room.CurrentRound) != 1 {
		t.Fatalf("update must not append, got %d entries", len(room.CurrentRound))
	}

	room.RemoveVote(admin.ID)
	if room.CurrentRound.VoteOf(admin.ID) != nil {
		t.Fatal("expected vote removed")
	}
}

func TestRemoveGuestDropsVote(t *testing.T) {
	admin := NewGuest("alice", true)
	room := NewRoom("sprint", testDeck(), admin)
	guest := NewGuest("bob", true)
	room.Guests = append(room.Guests, guest)
	value := 0
	room.SetVote(guest.ID, &value)

	room.RemoveGuest(guest.ID)

	if room.GuestByID(guest.ID) != nil {
		t.Fatal("expected guest removed")
	}
	if room.CurrentRound.VoteOf(guest.ID) != nil {
		t.Fatal("expected removed guest's vote dropped")
	}
}

func TestGuestConnectionDerivesPresence(t *testing.T) {
	guest := NewGuest("alice", true)

	if guest.IsConnected() {
		t.Fatal("fresh guest has no connections")
	}
	guest.AttachConnection("conn-1")
	guest.AttachConnection("conn-2")
	if !guest.IsConnected() {
		t.Fatal("expected connected with two handles")
	}
	if remaining := guest.DetachConnection("conn-1"); !remaining {
		t.Fatal("expected one handle remaining")
	}
	if remaining := guest.DetachConnection("conn-2"); remaining {
		t.Fatal("expected no handles remaining")
	}
	if guest.IsConnected() {
		t.Fatal("expected disconnected after last handle dropped")
	}
}

func TestGuestLookups(t *testing.T) {
	admin := NewGuest("alice", true)
	admin.AttachConnection("conn-a")
	room := NewRoom("sprint", testDeck(), admin)

	if room.GuestByConnection("conn-a") != admin {
		t.Fatal("expected lookup by connection")
	}
	if room.GuestByConnection("conn-x") != nil {
		t.Fatal("expected nil for unknown connection")
	}
	if room.GuestBySecret(admin.SecretID) != admin {
		t.Fatal("expected lookup by secret")
	}
	if room.GuestBySecret(admin.ID) != nil {
		t.Fatal("public id must not work as a credential")
	}
}

func TestPublicGuestsOmitsCaller(t *testing.T) {
	admin := NewGuest("alice", true)
	room := NewRoom("sprint", testDeck(), admin)
	guest := NewGuest("bob", true)
	room.Guests = append(room.Guests, guest)

	public := room.PublicGuests(guest.ID)
	if len(public) != 1 || public[0].ID != admin.ID {
		t.Fatalf("expected only admin in list, got %+v", public)
	}
}
