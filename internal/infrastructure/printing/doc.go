// Package printing renders HTML to PDF through a headless Chrome
// instance, driven over the DevTools protocol with chromedp.
//
// ChromedpRenderer implements the PDFRenderer interface and either
// launches its own browser or attaches to a remote one. DocketRenderer
// adapts it to the approval docket port, fixing the A4 page setup and
// the page-number footer.
//
// Example usage:
//
//	renderer, err := NewChromedpRenderer(&ChromedpConfig{
//	    NoSandbox: true, // required when running as root in a container
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer renderer.Close()
//
//	result, err := renderer.Render(ctx, &RenderRequest{
//	    HTML:  "<html>...</html>",
//	    Title: "Approval Docket",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Printf("Generated PDF: %d bytes\n", len(result.PDFData))
package printing
