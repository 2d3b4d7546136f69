package mail

import (
	"context"
	"testing"

	"github.com/jaimemartinez/wordjs-sub005/models"
)

func TestThreadLinking(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{}
	linker := NewThreadLinker(store)

	// A is a root message: sentinel parent and thread ids
	a := &models.Email{
		FromAddress: "alice@example.com",
		ToAddress:   "bob@example.com",
		Subject:     "hello",
	}
	if err := store.Create(ctx, a); err != nil {
		t.Fatal(err)
	}

	// B replies to A: the parent becomes the thread root
	parentID, threadID := linker.Link(ctx, a.ID)
	if parentID != a.ID || threadID != a.ID {
		t.Fatalf("Link(A) = (%q, %q), want (%q, %q)", parentID, threadID, a.ID, a.ID)
	}
	b := &models.Email{
		FromAddress: "bob@example.com",
		ToAddress:   "alice@example.com",
		Subject:     "Re: hello",
		ParentID:    parentID,
		ThreadID:    threadID,
	}
	if err := store.Create(ctx, b); err != nil {
		t.Fatal(err)
	}

	// C replies to B: inherits B's thread rather than starting a new one
	parentID, threadID = linker.Link(ctx, b.ID)
	if parentID != b.ID {
		t.Errorf("Link(B) parent = %q, want %q", parentID, b.ID)
	}
	if threadID != a.ID {
		t.Errorf("Link(B) thread = %q, want %q", threadID, a.ID)
	}
	c := &models.Email{
		FromAddress: "alice@example.com",
		ToAddress:   "bob@example.com",
		Subject:     "Re: hello",
		ParentID:    parentID,
		ThreadID:    threadID,
	}
	if err := store.Create(ctx, c); err != nil {
		t.Fatal(err)
	}

	// The thread view is identical no matter which member it starts from
	for _, id := range []string{a.ID, b.ID, c.ID} {
		emails, err := linker.Thread(ctx, id)
		if err != nil {
			t.Fatalf("Thread(%q): %v", id, err)
		}
		if len(emails) != 3 {
			t.Fatalf("Thread(%q) returned %d messages, want 3", id, len(emails))
		}
		seen := map[string]bool{}
		for _, e := range emails {
			seen[e.ID] = true
		}
		for _, want := range []string{a.ID, b.ID, c.ID} {
			if !seen[want] {
				t.Errorf("Thread(%q) missing message %q", id, want)
			}
		}
	}
}

func TestLinkWithoutParent(t *testing.T) {
	linker := NewThreadLinker(&fakeStore{})

	parentID, threadID := linker.Link(context.Background(), models.NoParent)
	if parentID != models.NoParent || threadID != models.NoParent {
		t.Errorf("Link(none) = (%q, %q), want sentinels", parentID, threadID)
	}

	// A dangling reference behaves like no reference at all
	parentID, threadID = linker.Link(context.Background(), "no-such-message")
	if parentID != models.NoParent || threadID != models.NoParent {
		t.Errorf("Link(dangling) = (%q, %q), want sentinels", parentID, threadID)
	}
}

func TestLinkByMessageID(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{}
	linker := NewThreadLinker(store)

	root := &models.Email{
		MessageID:   "root-id@example.com",
		FromAddress: "alice@example.com",
		ToAddress:   "bob@example.com",
	}
	if err := store.Create(ctx, root); err != nil {
		t.Fatal(err)
	}

	parentID, threadID := linker.LinkByMessageID(ctx, "root-id@example.com")
	if parentID != root.ID || threadID != root.ID {
		t.Errorf("LinkByMessageID = (%q, %q), want (%q, %q)", parentID, threadID, root.ID, root.ID)
	}

	parentID, threadID = linker.LinkByMessageID(ctx, "unknown@example.com")
	if parentID != models.NoParent || threadID != models.NoParent {
		t.Errorf("LinkByMessageID(unknown) = (%q, %q), want sentinels", parentID, threadID)
	}
}
