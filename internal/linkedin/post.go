package linkedin

// UGCPost is the body of POST /ugcPosts for a text-only share.
type UGCPost struct {
	Author          string          `json:"author"`
	LifecycleState  string          `json:"lifecycleState"`
	SpecificContent SpecificContent `json:"specificContent"`
	Visibility      Visibility      `json:"visibility"`
}

type SpecificContent struct {
	ShareContent ShareContent `json:"com.linkedin.ugc.ShareContent"`
}

type ShareContent struct {
	ShareCommentary    Commentary `json:"shareCommentary"`
	ShareMediaCategory string     `json:"shareMediaCategory"`
}

type Commentary struct {
	Text string `json:"text"`
}

type Visibility struct {
	MemberNetwork string `json:"com.linkedin.ugc.MemberNetworkVisibility"`
}

// NewTextShare builds a public text share authored by the member with the
// given OIDC subject.
func NewTextShare(subject, lifecycleState, text string) UGCPost {
	return UGCPost{
		Author:         PersonURN(subject),
		LifecycleState: lifecycleState,
		SpecificContent: SpecificContent{
			ShareContent: ShareContent{
				ShareCommentary:    Commentary{Text: text},
				ShareMediaCategory: "NONE",
			},
		},
		Visibility: Visibility{MemberNetwork: "PUBLIC"},
	}
}

// PersonURN returns the member URN for an OIDC subject.
func PersonURN(subject string) string {
	return "urn:li:person:" + subject
}

// PostURL links to a published share.
func PostURL(id string) string {
	return "https://www.linkedin.com/feed/update/" + id + "/"
}
