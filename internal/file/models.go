package file

// Document is what a DocumentSender delivers to a chat.
type Document struct {
	ChatID           int64
	Name             string
	Size             int64
	Caption          string
	ReplyToMessageID int
}

// Simplified drops the optional parts of the document for a fallback send.
func (d Document) Simplified() Document {
	return Document{
		ChatID: d.ChatID,
		Name:   d.Name,
		Size:   d.Size,
	}
}

// ProbeResult holds what a HEAD request revealed about a remote file.
type ProbeResult struct {
	Filename string
	Size     int64
}
