// Package extract turns uploaded files into plain text for ingestion.
//
// Text formats are read as is. PDF text comes from github.com/ledongthuc/pdf;
// DOCX paragraphs are read from word/document.xml.
package extract
