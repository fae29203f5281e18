package images

import (
	"fmt"
	"strings"

	"github.com/marklessapp/markless/internal/document"
	"github.com/marklessapp/markless/internal/screen"
)

// placeholderBg is the dark gray drawn over iTerm2 images during a scroll
// cooldown; re-embedding inline images mid-scroll flickers on iTerm2/Warp.
const placeholderBg = "238"

// RenderInto draws every image whose reserved rows intersect the viewport
// window [offset, offset+height) into the frame buffer. originX is the
// frame column of the document area. An image without a loaded protocol
// state is omitted; its reserved rows stay empty.
func (m *Manager) RenderInto(buf *screen.Buffer, doc *document.Document, offset, height, originX int, cooldownActive bool) {
	if !m.enabled || doc == nil {
		return
	}
	for _, ref := range doc.Images {
		top := ref.Start
		if top < offset {
			top = offset
		}
		bottom := ref.End
		if bottom > offset+height {
			bottom = offset + height
		}
		if top >= bottom {
			continue
		}
		entry, ok := m.state(ref.Src)
		if !ok {
			continue
		}
		destRow := top - offset
		srcTop := top - ref.Start
		visible := bottom - top

		switch entry.state.protocol {
		case Halfblocks:
			m.blitHalfblocks(buf, entry, srcTop, visible, destRow, originX)
		case Iterm2:
			if cooldownActive {
				m.drawPlaceholder(buf, entry, destRow, visible, originX)
				continue
			}
			m.emitPayload(buf, entry, ref.Src, srcTop, visible, destRow, originX)
		default:
			m.emitPayload(buf, entry, ref.Src, srcTop, visible, destRow, originX)
		}
	}
}

func (m *Manager) blitHalfblocks(buf *screen.Buffer, entry *protocolEntry, srcTop, visible, destRow, originX int) {
	rows := entry.state.HalfblockRows(srcTop, visible, m.picker.TrueColor)
	for i, row := range rows {
		y := destRow + i
		for x, cell := range row {
			buf.SetString(originX+x, y, string(cell.Rune), cell.Style)
		}
	}
}

func (m *Manager) emitPayload(buf *screen.Buffer, entry *protocolEntry, src string, srcTop, visible, destRow, originX int) {
	payload, err := entry.state.Payload(srcTop, visible)
	if err != nil {
		if !m.failed[src] {
			imgLog.Warn("image encode failed", "src", src, "err", err)
			m.failed[src] = true
		}
		return
	}
	buf.SetLiteral(destRow, originX, cursorColumn(originX)+payload)
	// The payload draws all visible rows from the top one. The remaining
	// reserved rows keep their leading cells but must not print blanks
	// over the drawn image.
	for i := 1; i < visible; i++ {
		buf.SetLiteral(destRow+i, originX, "")
	}
}

func (m *Manager) drawPlaceholder(buf *screen.Buffer, entry *protocolEntry, destRow, visible, originX int) {
	cols, _ := entry.state.CellSize()
	blank := strings.Repeat(" ", cols)
	for i := 0; i < visible; i++ {
		buf.SetString(originX, destRow+i, blank, screen.Style{Bg: placeholderBg})
	}
}

// cursorColumn positions the cursor at a 0-based frame column so literal
// payloads start at the document area, not column zero.
func cursorColumn(x int) string {
	return fmt.Sprintf("\x1b[%dG", x+1)
}
