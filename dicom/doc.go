// Package dicom provides data structures for the DICOM data set and a streaming codec for the
// DICOM file format as specified in [http://dicom.nema.org/medical/dicom/current/output/pdf/part05.pdf].
//
// A data set is an AttributeList: one Attribute per Tag, iterated in ascending tag order. Each
// Attribute has a fixed VR and knows how to validate, repair and encode its values. Sequences
// (SQ) hold items, which are AttributeLists themselves.
//
// AttributeList.Read and AttributeList.Write decode and encode a data set in a given
// TransferSyntax. ReadFile and WriteFile add the Part 10 framing: preamble, signature and File
// Meta Information. Large binary values can be left in the source and read on demand with
// WithDeferredBulkData.
//
// The run-length codec of the RLE Lossless transfer syntax lives in the rle subpackage.
package dicom
