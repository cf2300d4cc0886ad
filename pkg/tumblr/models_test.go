package tumblr

import (
	"testing"
)

func TestToPostPhotoUsesOriginalSize(t *testing.T) {
	raw := RawPost{
		ID:       1,
		BlogName: "alice",
		Type:     "photo",
		Caption:  "Sunset",
		Photos: []RawPhoto{
			{
				OriginalSize: RawSize{URL: "https://media.example.com/orig.jpg", Width: 1280},
				AltSizes: []RawSize{
					{URL: "https://media.example.com/small.jpg", Width: 400},
				},
			},
		},
	}

	post := raw.ToPost()
	if post.Type != PostTypePhoto {
		t.Errorf("Type = %v, want photo", post.Type)
	}
	if len(post.Assets) != 1 {
		t.Fatalf("got %d assets, want 1", len(post.Assets))
	}
	if post.Assets[0].URL != "https://media.example.com/orig.jpg" {
		t.Errorf("URL = %q, want original size", post.Assets[0].URL)
	}
	if post.Assets[0].Ext != ".jpg" {
		t.Errorf("Ext = %q, want .jpg", post.Assets[0].Ext)
	}
}

func TestToPostPhotoFallsBackToWidestAltSize(t *testing.T) {
	raw := RawPost{
		ID:   2,
		Type: "photo",
		Photos: []RawPhoto{
			{
				AltSizes: []RawSize{
					{URL: "https://media.example.com/small.jpg", Width: 400},
					{URL: "https://media.example.com/large.jpg", Width: 1280},
					{URL: "https://media.example.com/medium.jpg", Width: 640},
				},
			},
		},
	}

	post := raw.ToPost()
	if len(post.Assets) != 1 {
		t.Fatalf("got %d assets, want 1", len(post.Assets))
	}
	if post.Assets[0].URL != "https://media.example.com/large.jpg" {
		t.Errorf("URL = %q, want widest alt size", post.Assets[0].URL)
	}
}

func TestToPostPhotosetIndexesAssets(t *testing.T) {
	raw := RawPost{
		ID:   3,
		Type: "photo",
		Photos: []RawPhoto{
			{OriginalSize: RawSize{URL: "https://media.example.com/a.jpg"}},
			{OriginalSize: RawSize{URL: "https://media.example.com/b.jpg"}},
			{OriginalSize: RawSize{URL: "https://media.example.com/c.jpg"}},
		},
	}

	post := raw.ToPost()
	if !post.IsPhotoset() {
		t.Error("IsPhotoset() = false, want true")
	}
	for i, asset := range post.Assets {
		if asset.Index != i {
			t.Errorf("asset %d has Index %d", i, asset.Index)
		}
		if asset.PostID != 3 {
			t.Errorf("asset %d has PostID %d, want 3", i, asset.PostID)
		}
	}
}

func TestToPostVideo(t *testing.T) {
	raw := RawPost{
		ID:       4,
		Type:     "video",
		VideoURL: "https://vt.example.com/clip.mp4",
	}

	post := raw.ToPost()
	if post.Type != PostTypeVideo {
		t.Errorf("Type = %v, want video", post.Type)
	}
	if len(post.Assets) != 1 || post.Assets[0].Ext != ".mp4" {
		t.Fatalf("assets = %+v, want single .mp4", post.Assets)
	}
}

func TestToPostUnknownTypeMapsToGeneric(t *testing.T) {
	for _, typ := range []string{"text", "quote", "chat", "answer", "audio"} {
		raw := RawPost{ID: 5, Type: typ}
		post := raw.ToPost()
		if post.Type != PostTypeGeneric {
			t.Errorf("ToPost(%q).Type = %v, want generic", typ, post.Type)
		}
	}
}

func TestToPostLinkCountsAsPhotoPost(t *testing.T) {
	// link posts carry photo attachments and classify as photo posts
	raw := RawPost{
		ID:   6,
		Type: "link",
		Photos: []RawPhoto{
			{OriginalSize: RawSize{URL: "https://media.example.com/preview.png"}},
		},
	}

	post := raw.ToPost()
	if post.Type != PostTypePhoto {
		t.Errorf("Type = %v, want photo", post.Type)
	}
	if len(post.Assets) != 1 {
		t.Errorf("got %d assets, want 1", len(post.Assets))
	}
}

func TestToPostCaptionFallsBackToSummary(t *testing.T) {
	raw := RawPost{ID: 7, Type: "photo", Summary: "short summary"}
	post := raw.ToPost()
	if post.Caption != "short summary" {
		t.Errorf("Caption = %q, want summary fallback", post.Caption)
	}
}

func TestContentIDIsAssetURL(t *testing.T) {
	asset := Asset{URL: "https://media.example.com/a.jpg"}
	if asset.ContentID() != asset.URL {
		t.Errorf("ContentID() = %q, want %q", asset.ContentID(), asset.URL)
	}
}

func TestInferExtension(t *testing.T) {
	tests := []struct {
		url      string
		fallback string
		want     string
	}{
		{"https://media.example.com/a.jpg", ".jpg", ".jpg"},
		{"https://media.example.com/a.png?token=xyz", ".jpg", ".png"},
		{"https://media.example.com/clip.mp4#t=10", ".mp4", ".mp4"},
		{"https://media.example.com/noext", ".jpg", ".jpg"},
		{"https://media.example.com/a.weirdlong", ".jpg", ".jpg"},
	}
	for _, tt := range tests {
		if got := inferExtension(tt.url, tt.fallback); got != tt.want {
			t.Errorf("inferExtension(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}
