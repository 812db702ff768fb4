// Package document loads and saves QTI-XML documents.
//
// An [XMLDocument] ties the tolerant parser of [xmltree], the marshallers of
// [marshal] and an optional schema [Validator] together:
//
//	doc := document.New()
//	if err := doc.Load("item.xml", false); err != nil {
//	    log.Fatal(err)
//	}
//	item := doc.DocumentComponent().(*qti.AssessmentItem)
//
// # Loading
//
// Load reads the whole input and parses it. Every well-formedness problem
// is collected with its line and column; any Error or Fatal problem fails
// the load with an [*Error] of kind [KindParse] carrying the full list.
// Warnings are logged and otherwise ignored.
//
// The QTI version is inferred from the namespace of the root element
// (imsqti_v2p0, imsqti_v2p1 or imsqti_v2p2) and replaces the configured one.
// Documents in any other namespace fail with [ErrVersionInference].
//
// # Saving
//
// Save marshals the document component and decorates the root element with
// the QTI namespace and the schema location of the document's version.
// Marshalling failures are reported as [*Error] values of kind [KindMarshal];
// failures of the destination wrap [ErrWrite].
//
// # Concurrency
//
// An XMLDocument must not be used from several goroutines at once.
package document
