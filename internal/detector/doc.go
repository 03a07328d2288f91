// Package detector counts the keywords that appear in incoming search queries.
//
// A Detector keeps one Histogram per Feature (the origin of the text: a file
// name, a file extension, or the search source). Queries are split on
// whitespace, stop words are dropped, and every remaining token increments
// the histogram for its feature. Ingestion is synchronous and cheap; asking
// for a histogram snapshot is asynchronous and hands the sorted copy to the
// registered Listener from a Dispatcher task.
//
// Tokens are matched literally. There is no case folding, punctuation
// stripping, or stemming, so "Bunny" and "bunny" are distinct keywords.
package detector
