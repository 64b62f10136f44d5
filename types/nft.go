package types

// NFTAttribute is a single trait entry of the NFT metadata document.
type NFTAttribute struct {
	TraitType string `json:"trait_type"`
	Value     string `json:"value"`
}

// NFTMetadata is the document describing a memorial entry NFT. It is
// uploaded to object storage and referenced by the token URI.
type NFTMetadata struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Image       string         `json:"image"`
	Attributes  []NFTAttribute `json:"attributes"`

	SongOfCreationLink       *string `json:"song_of_creation_ipfs_link,omitempty"`
	LyricsLink               *string `json:"lyrics_link,omitempty"`
	WriterSocialProfile      *string `json:"writer_social_profile,omitempty"`
	JourneyLink              *string `json:"guzzyandbash_journey_link,omitempty"`
	CoreVowFoundingIntention *string `json:"core_vow_founding_intention,omitempty"`
	CreatorWalletAddress     *string `json:"creator_wallet_address_xrpl,omitempty"`
}

// MintResult is returned after the ledger validated an NFTokenMint.
type MintResult struct {
	Message            string         `json:"message"`
	TransactionHash    string         `json:"transaction_hash"`
	NFTokenID          *string        `json:"nft_token_id"`
	InitiatedByUser    string         `json:"initiated_by_user"`
	MetadataURI        string         `json:"metadata_uri"`
	XRPLResponseResult map[string]any `json:"xrpl_response_result"`
}
