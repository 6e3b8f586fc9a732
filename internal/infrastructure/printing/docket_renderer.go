package printing

import (
	"context"
	"fmt"

	"github.com/tallybridge/backend/internal/application/approval"
)

// docketFooter numbers the pages of a printed docket. Chrome substitutes
// the pageNumber and totalPages spans while printing.
const docketFooter = `<div style="font-size:8px; width:100%; text-align:center; color:#666;">Page <span class="pageNumber"></span> of <span class="totalPages"></span></div>`

// DocketRenderer adapts the PDF renderer to the approval docket port,
// fixing the page footer so every docket carries page numbers.
type DocketRenderer struct {
	renderer PDFRenderer
}

// NewDocketRenderer creates a new DocketRenderer
func NewDocketRenderer(renderer PDFRenderer) *DocketRenderer {
	return &DocketRenderer{renderer: renderer}
}

// RenderPDF renders the docket HTML into a PDF document
func (r *DocketRenderer) RenderPDF(ctx context.Context, html, title string) ([]byte, error) {
	result, err := r.renderer.Render(ctx, &RenderRequest{
		HTML:       html,
		Title:      title,
		FooterHTML: docketFooter,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to render docket: %w", err)
	}
	return result.PDFData, nil
}

// Ensure DocketRenderer implements the approval port
var _ approval.DocketRenderer = (*DocketRenderer)(nil)
