package models

// LibraryItem is a browsable item from the host's library or the external catalog
type LibraryItem struct {
	Path     string   `json:"path"`
	Name     string   `json:"name"`
	Type     string   `json:"type"`
	BPM      *float64 `json:"bpm,omitempty"`
	Key      string   `json:"key,omitempty"`
	Genre    string   `json:"genre,omitempty"`
	Duration *float64 `json:"duration,omitempty"`
	Source   string   `json:"source,omitempty"`
}

// ToMap is the loosely-typed form used on the remote graph
func (i LibraryItem) ToMap() map[string]any {
	m := map[string]any{
		"path": i.Path,
		"name": i.Name,
		"type": i.Type,
	}
	if i.BPM != nil {
		m["bpm"] = *i.BPM
	}
	if i.Key != "" {
		m["key"] = i.Key
	}
	if i.Genre != "" {
		m["genre"] = i.Genre
	}
	if i.Duration != nil {
		m["duration"] = *i.Duration
	}
	return m
}

// LibraryItemFromMap decodes a loosely-typed item
func LibraryItemFromMap(m map[string]any) LibraryItem {
	item := LibraryItem{}
	item.Path, _ = m["path"].(string)
	item.Name, _ = m["name"].(string)
	item.Type, _ = m["type"].(string)
	item.Key, _ = m["key"].(string)
	item.Genre, _ = m["genre"].(string)
	if bpm, ok := numberField(m, "bpm"); ok {
		item.BPM = &bpm
	}
	if d, ok := numberField(m, "duration"); ok {
		item.Duration = &d
	}
	return item
}
