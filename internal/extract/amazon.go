package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"

	"github.com/maltedev/amazon-bestsellers/internal/models"
)

// Selectors shared with the browser layer, which waits on them before a
// snapshot is taken.
const (
	ProductTitleSelector = "#productTitle"
	ProductCardSelector  = "xpath=//div[contains(@class, 'zg-grid-general')]"
)

var (
	productCard = XPath("//div[contains(@class, 'zg-grid-general')]")
	productLink = XPath(".//a[contains(@class, 'a-link-normal')]")

	titleLocators = []Locator{
		XPath("//*[@id='productTitle']"),
	}

	priceLocators = []Locator{
		XPath("//span[@class='a-price-whole']"),
		XPath("//span[@class='a-price']"),
		XPath("//div[@class='a-section a-spacing-none aok-align-center']//span[@class='a-price-fraction']"),
		CSS(".priceToPay .a-price-whole"),
		CSS("#corePriceDisplay_desktop_feature_div .a-price .a-offscreen"),
	}

	discountLocators = []Locator{
		XPath("//div[@id='corePriceDisplay_desktop_feature_div']//span[@class='a-size-large a-color-price']"),
		XPath("//span[contains(@class, 'savingsPercentage')]"),
	}

	ratingLocators = []Locator{
		XPath("//*[@id='acrPopover']/span[1]/a/span"),
		CSS("#acrPopover span.a-size-base.a-color-base"),
	}

	rankLocators = []Locator{
		XPath("//*[@id='productDetails_detailBullets_sections1']/tbody/tr[5]/td/span/span[1]"),
	}

	shipFromLocators = []Locator{
		XPath("//*[@id='tabular-buybox']/div[1]/div[4]/div/span"),
	}

	soldByLocators = []Locator{
		XPath("//a[@id='sellerProfileTriggerId']"),
		CSS("#merchant-info a"),
	}

	descriptionLocators = []Locator{
		XPath("//div[@id='productDescription']//p"),
		XPath("//div[@id='feature-bullets']//ul"),
		XPath("//div[@id='productDescription_feature_div']//div[@class='a-expander-content']"),
	}

	unitsSoldLocators = []Locator{
		XPath("//*[@id='social-proofing-faceout-title-tk_bought']/span[1]"),
	}

	imageLocators = []Locator{
		XPath("//div[@id='imageBlock']//img"),
		XPath("//ul[contains(@class, 'a-unordered-list a-vertical a-spacing-none')]//img"),
		XPath("//div[contains(@class, 'image-container')]//img"),
		CSS("div#altImages img"),
		CSS("#landingImage"),
	}
)

// ProductPage reads product attributes from a product page snapshot. Every
// lookup is best-effort: a missing element yields an empty value.
type ProductPage struct {
	doc *Document
}

func NewProductPage(doc *Document) *ProductPage {
	return &ProductPage{doc: doc}
}

// Record assembles all fields into a ProductRecord for category.
func (p *ProductPage) Record(category string) *models.ProductRecord {
	record := models.NewProductRecord(category)
	record.Name = p.Name()
	record.Price = p.Price()
	record.SaleDiscount = p.Discount()
	record.Rating = p.Rating()
	record.BestSellerRank = p.BestSellerRank()
	record.ShipFrom = p.ShipFrom()
	record.SoldBy = p.SoldBy()
	record.Description = p.Description()
	record.UnitsSold = p.UnitsSold()
	record.Images = p.Images()
	return record
}

func (p *ProductPage) Name() string { return p.doc.FirstText(titleLocators...) }

func (p *ProductPage) Price() string { return p.doc.FirstText(priceLocators...) }

func (p *ProductPage) Discount() string { return p.doc.FirstText(discountLocators...) }

func (p *ProductPage) Rating() string { return p.doc.FirstText(ratingLocators...) }

func (p *ProductPage) ShipFrom() string { return p.doc.FirstText(shipFromLocators...) }

func (p *ProductPage) SoldBy() string { return p.doc.FirstText(soldByLocators...) }

func (p *ProductPage) Description() string { return p.doc.FirstText(descriptionLocators...) }

func (p *ProductPage) UnitsSold() string { return p.doc.FirstText(unitsSoldLocators...) }

// BestSellerRank tries the fixed table row first, then any detail row whose
// header mentions the rank.
func (p *ProductPage) BestSellerRank() string {
	if rank := p.doc.FirstText(rankLocators...); rank != "" {
		return rank
	}

	var rank string
	p.doc.Selection().Find("#productDetails_detailBullets_sections1 tr, #detailBulletsWrapper_feature_div li").
		EachWithBreak(func(_ int, s *goquery.Selection) bool {
			if !strings.Contains(s.Text(), "Best Sellers Rank") {
				return true
			}
			cell := s.Find("td")
			if cell.Length() == 0 {
				cell = s
			}
			text := Text(cell.Nodes[0])
			text = strings.TrimSpace(strings.TrimPrefix(text, "Best Sellers Rank:"))
			rank = firstLine(text)
			return rank == ""
		})
	return rank
}

// Images collects image URLs from the first locator that yields any, in
// first-seen order and without duplicates.
func (p *ProductPage) Images() []string {
	seen := make(map[string]struct{})
	images := make([]string, 0)

	for _, l := range imageLocators {
		for _, n := range p.doc.Find(l) {
			src := p.doc.Attr(n, "src")
			if src == "" {
				continue
			}
			if _, dup := seen[src]; dup {
				continue
			}
			seen[src] = struct{}{}
			images = append(images, src)
		}
		if len(images) > 0 {
			break
		}
	}

	return images
}

// ProductLinks returns the product page URLs of the first limit product
// cards on a listing page. Cards without a link are skipped.
func ProductLinks(doc *Document, limit int) []string {
	cards := doc.Find(productCard)
	if limit > 0 && len(cards) > limit {
		cards = cards[:limit]
	}

	links := make([]string, 0, len(cards))
	for _, card := range cards {
		a, err := htmlquery.Query(card, productLink.Query)
		if err != nil || a == nil {
			continue
		}
		if href := doc.Attr(a, "href"); href != "" {
			links = append(links, href)
		}
	}
	return links
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return strings.TrimSpace(s)
}
