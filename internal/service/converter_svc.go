package service

import (
	"strings"

	"github.com/stamat12/ecom-platform-v2-sub000/internal/model"
	"github.com/stamat12/ecom-platform-v2-sub000/pkg/ebay"
)

// ToActiveListing 平台在售商品 -> 内部刊登
func ToActiveListing(item ebay.ActiveItem, defaultMarketplace, defaultCurrency string) model.ActiveListing {
	// 价格优先取当前售价，没有时用一口价
	price := item.SellingStatus.CurrentPrice
	if price.Value == "" {
		price = item.BuyItNowPrice
	}
	currency := price.CurrencyID
	if currency == "" {
		currency = defaultCurrency
	}

	available := item.QuantityAvailable
	if available == 0 && item.Quantity > item.SellingStatus.QuantitySold {
		available = item.Quantity - item.SellingStatus.QuantitySold
	}

	return model.ActiveListing{
		ItemID:            item.ItemID,
		SKU:               strings.TrimSpace(item.SKU),
		Title:             item.Title,
		Marketplace:       siteMarketplace(item.Site, defaultMarketplace),
		Price:             price.Float(),
		Currency:          currency,
		Quantity:          item.Quantity,
		QuantitySold:      item.SellingStatus.QuantitySold,
		QuantityAvailable: available,
		Condition:         item.ConditionName,
		CategoryID:        item.PrimaryCategory.CategoryID,
		CategoryName:      item.PrimaryCategory.CategoryName,
		ImageURLs:         pictureURLs(item.PictureDetails.PictureURL, item.PictureDetails.GalleryURL),
		ListingURL:        item.ListingDetails.ViewItemURL,
	}
}

// ToActiveListings 批量转换
func ToActiveListings(items []ebay.ActiveItem, defaultMarketplace, defaultCurrency string) []model.ActiveListing {
	out := make([]model.ActiveListing, 0, len(items))
	for _, item := range items {
		out = append(out, ToActiveListing(item, defaultMarketplace, defaultCurrency))
	}
	return out
}

// FromLegacyListing 旧格式缓存条目 -> 内部刊登
func FromLegacyListing(itemID string, l model.LegacyListing, defaultMarketplace, defaultCurrency string) model.ActiveListing {
	currency := l.Currency
	if currency == "" {
		currency = defaultCurrency
	}
	available := l.Quantity - l.Sold
	if available < 0 {
		available = 0
	}
	return model.ActiveListing{
		ItemID:            itemID,
		SKU:               strings.TrimSpace(l.SKU),
		Title:             l.Title,
		Marketplace:       siteMarketplace(l.Site, defaultMarketplace),
		Price:             l.Price,
		Currency:          currency,
		Quantity:          l.Quantity,
		QuantitySold:      l.Sold,
		QuantityAvailable: available,
		ImageURLs:         l.Pictures,
	}
}

// siteMarketplace "Germany" / "EBAY_DE" -> "EBAY_DE"
func siteMarketplace(site, fallback string) string {
	if strings.TrimSpace(site) == "" {
		return fallback
	}
	country := CountryOf(site)
	if len(country) != 2 {
		return fallback
	}
	return "EBAY_" + country
}

func pictureURLs(urls []string, gallery string) []string {
	if len(urls) > 0 {
		return urls
	}
	if gallery != "" {
		return []string{gallery}
	}
	return nil
}
