package signaling

import "testing"

func TestParseInbound_Valid(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"join-room", `{"event":"join-room","roomId":"r1","userId":"u1","userName":"Alice"}`},
		{"offer", `{"event":"offer","roomId":"r1","offer":{"type":"offer","sdp":"v=0"},"to":"u2","userId":"u1"}`},
		{"answer", `{"event":"answer","roomId":"r1","answer":{"type":"answer","sdp":"v=0"},"to":"u1"}`},
		{"ice-candidate", `{"event":"ice-candidate","roomId":"r1","candidate":{"candidate":"candidate:1"}}`},
		{"leave-room", `{"event":"leave-room","roomId":"r1","userId":"u1"}`},
		{"chat-message", `{"event":"chat-message","roomId":"r1","message":"hi","userName":"Alice","userId":"u1"}`},
		{"end-session", `{"event":"end-session","roomId":"r1","adminId":"a1"}`},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			msg, err := parseInbound([]byte(c.raw))
			if err != nil {
				t.Fatalf("parse failed: %v", err)
			}
			if msg.Event != c.name {
				t.Errorf("event: got %q, want %q", msg.Event, c.name)
			}
			if msg.RoomID != "r1" {
				t.Errorf("roomId: got %q, want r1", msg.RoomID)
			}
		})
	}
}

func TestParseInbound_Invalid(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"not json", `-`},
		{"unknown event", `{"event":"shout","roomId":"r1"}`},
		{"missing roomId", `{"event":"join-room","userId":"u1"}`},
		{"join without userId", `{"event":"join-room","roomId":"r1"}`},
		{"offer without payload", `{"event":"offer","roomId":"r1","to":"u2"}`},
		{"answer without payload", `{"event":"answer","roomId":"r1"}`},
		{"candidate without payload", `{"event":"ice-candidate","roomId":"r1"}`},
		{"chat without message", `{"event":"chat-message","roomId":"r1","userId":"u1"}`},
		{"chat without userId", `{"event":"chat-message","roomId":"r1","message":"hi"}`},
		{"end without adminId", `{"event":"end-session","roomId":"r1"}`},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if _, err := parseInbound([]byte(c.raw)); err == nil {
				t.Error("expected parse error")
			}
		})
	}
}

func TestParseInbound_PayloadForwardedVerbatim(t *testing.T) {
	raw := `{"event":"offer","roomId":"r1","offer":{"type":"offer","sdp":"v=0\r\no=- 1 1 IN IP4 0.0.0.0"}}`
	msg, err := parseInbound([]byte(raw))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	want := `{"type":"offer","sdp":"v=0\r\no=- 1 1 IN IP4 0.0.0.0"}`
	if string(msg.Offer) != want {
		t.Errorf("offer payload altered:\n got %s\nwant %s", msg.Offer, want)
	}
}
