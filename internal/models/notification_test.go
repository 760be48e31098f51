package models

import "testing"

func TestNotificationKindValid(t *testing.T) {
	for _, kind := range []NotificationKind{KindLike, KindRetweet, KindReply, KindFollow, KindMention} {
		if !kind.Valid() {
			t.Errorf("expected %q to be valid", kind)
		}
	}
	for _, kind := range []NotificationKind{"", "poke", "Like", "LIKE", "like "} {
		if kind.Valid() {
			t.Errorf("expected %q to be invalid", kind)
		}
	}
}
